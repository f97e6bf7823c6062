// Package bsptest builds small, hand-rolled bspfile.Map values for unit
// tests, instead of every test reading a real .bsp off disk. Not used
// outside _test.go files.
package bsptest

import "github.com/samuelyuan/q3playground/bspfile"

// SingleBoxMap returns a map containing exactly one solid brush spanning
// [mins, maxs], reachable via a single root node whose front and back
// children both resolve to the same leaf. Good enough to exercise
// FindLeaf, ClusterVisible and Trace without a real map file.
func SingleBoxMap(mins, maxs [3]float32) *bspfile.Map {
	planes := []bspfile.Plane{
		{Normal: [3]float32{1, 0, 0}, Dist: maxs[0]},
		{Normal: [3]float32{-1, 0, 0}, Dist: -mins[0]},
		{Normal: [3]float32{0, 1, 0}, Dist: maxs[1]},
		{Normal: [3]float32{0, -1, 0}, Dist: -mins[1]},
		{Normal: [3]float32{0, 0, 1}, Dist: maxs[2]},
		{Normal: [3]float32{0, 0, -1}, Dist: -mins[2]},
	}

	brushSides := make([]bspfile.BrushSide, len(planes))
	for i := range planes {
		brushSides[i] = bspfile.BrushSide{Plane: int32(i), Texture: 0}
	}

	m := &bspfile.Map{
		Textures: []bspfile.Texture{{Contents: bspfile.ContentsSolid}},
		Planes:   planes,
		Nodes: []bspfile.Node{
			{Plane: 0, Front: -1, Back: -1},
		},
		Leaves: []bspfile.Leaf{
			{Cluster: -1, LeafBrush: 0, NumLeafBrushes: 1},
		},
		LeafBrushes: []int32{0},
		Brushes: []bspfile.Brush{
			{BrushSide: 0, NumBrushSides: int32(len(brushSides)), Texture: 0},
		},
		BrushSides: brushSides,
	}
	m.Planeinfo = bspfile.BuildPlaneIndex(m.Planes)
	return m
}

// EmptyMap returns a map with no geometry at all: every trace is
// unobstructed, FindLeaf always resolves to leaf 0.
func EmptyMap() *bspfile.Map {
	m := &bspfile.Map{
		Leaves: []bspfile.Leaf{{Cluster: -1}},
	}
	return m
}

// TwoClusterMap returns a map whose only purpose is exercising PVS
// lookups: two leaves in clusters 0 and 1, with sz_vecs=2 and the vecs
// from spec.md scenario S1.
func TwoClusterMap() *bspfile.Map {
	m := &bspfile.Map{
		Leaves: []bspfile.Leaf{
			{Cluster: 0},
			{Cluster: 1},
		},
		Visdata: bspfile.Visdata{
			NumVecs: 2,
			SzVecs:  2,
			Vecs:    []byte{0b00000011, 0x00, 0b00000010, 0x00},
		},
	}
	return m
}
