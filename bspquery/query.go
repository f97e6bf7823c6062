// Package bspquery answers point-in-leaf and cluster-visibility questions
// against an already-loaded bspfile.Map. Both operations are pure reads
// over map state; neither allocates nor fails.
package bspquery

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samuelyuan/q3playground/bspfile"
)

// FindLeaf descends the BSP tree from node 0 and returns the leaf
// containing pos. Terminates because the tree is finite and acyclic;
// an invalid starting node (InvariantViolation, §7) falls back to leaf 0.
func FindLeaf(m *bspfile.Map, pos mgl32.Vec3) int {
	if len(m.Nodes) == 0 {
		return 0
	}

	nodeIndex := int32(0)
	for nodeIndex >= 0 {
		if int(nodeIndex) >= len(m.Nodes) {
			return 0
		}
		node := m.Nodes[nodeIndex]
		plane := m.Planes[node.Plane]

		d := pos[0]*plane.Normal[0] + pos[1]*plane.Normal[1] + pos[2]*plane.Normal[2] - plane.Dist
		if d >= 0 {
			nodeIndex = node.Front
		} else {
			nodeIndex = node.Back
		}
	}

	leaf := int(-nodeIndex - 1)
	if leaf < 0 || leaf >= len(m.Leaves) {
		return 0
	}
	return leaf
}

// ClusterVisible reports whether cluster `to` is potentially visible from
// cluster `from`. A negative cluster id (no PVS data) is treated as
// conservatively visible in both directions.
func ClusterVisible(m *bspfile.Map, from, to int) bool {
	if from < 0 || to < 0 {
		return true
	}
	if m.Visdata.SzVecs == 0 {
		return true
	}

	index := from*int(m.Visdata.SzVecs) + to/8
	if index < 0 || index >= len(m.Visdata.Vecs) {
		return true
	}
	return m.Visdata.Vecs[index]&(1<<uint(to%8)) != 0
}

// VisibleLeaves returns every leaf index whose cluster is potentially
// visible from fromCluster, including fromCluster's own leaves. Intended
// as the renderer collaborator's entry point for building a per-frame
// visible-face list, so it doesn't need to reimplement the cluster walk
// that the PVS lump encodes.
func VisibleLeaves(m *bspfile.Map, fromCluster int) []int {
	var leaves []int
	for i, leaf := range m.Leaves {
		if ClusterVisible(m, fromCluster, int(leaf.Cluster)) {
			leaves = append(leaves, i)
		}
	}
	return leaves
}
