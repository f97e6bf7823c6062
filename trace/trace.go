// Package trace implements the swept axis-aligned box vs. brush trace
// used by the movement controller. It is a pure function over a loaded
// bspfile.Map: no I/O, no allocation in the hot path, no error surface.
// Pathological input (zero-length segment, degenerate planes, a point
// already embedded in solid) always terminates with some frac in [0,1].
package trace

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samuelyuan/q3playground/bspfile"
)

// SurfClipEpsilon is the slack distance kept off a contact plane to avoid
// landing exactly on it (Quake's SURF_CLIP_EPSILON).
const SurfClipEpsilon = 0.125

// nonAxialOffset is the deliberately generous bound used for non-axial
// planes when the hitbox isn't point-sized. The source calls this choice
// "silly" — it isn't tight, the algorithm just doesn't need it to be.
const nonAxialOffset = 2048

// Flags reports what a trace observed about its start/end points.
type Flags uint8

const (
	FlagStartsOut Flags = 1 << iota
	FlagEndsOut
	FlagAllSolid
)

func (f Flags) StartsOut() bool { return f&FlagStartsOut != 0 }
func (f Flags) EndsOut() bool   { return f&FlagEndsOut != 0 }
func (f Flags) AllSolid() bool  { return f&FlagAllSolid != 0 }

// Result is the outcome of a single Trace call.
type Result struct {
	Frac      float32
	EndPos    mgl32.Vec3
	Plane     *bspfile.Plane
	PlaneInfo *bspfile.PlaneInfo
	Flags     Flags
}

// Blocked reports whether the trace was stopped short of end.
func (r Result) Blocked() bool { return r.Frac < 1 }

// traceWork is the ephemeral, stack-local state for one Trace call.
type traceWork struct {
	m *bspfile.Map

	// start/end are the recentered, shifted segment endpoints. Brush
	// clipping always tests against these, not the per-node interval
	// endpoints passed down the tree.
	start, end mgl32.Vec3
	mins, maxs mgl32.Vec3
	offsets    [8]mgl32.Vec3
	isPoint    bool

	frac        float32
	clipPlaneIx int32
	flags       Flags
}

// Trace sweeps a box from start to end and clips it against the BSP's
// solid brushes. mins/maxs may be asymmetric (e.g. the player hitbox);
// the trace recenters internally.
func Trace(m *bspfile.Map, start, end, mins, maxs mgl32.Vec3) Result {
	o := mins.Add(maxs).Mul(0.5)
	mins2 := mins.Sub(o)
	maxs2 := maxs.Sub(o)
	start2 := start.Add(o)
	end2 := end.Add(o)

	var offsets [8]mgl32.Vec3
	for c := 0; c < 8; c++ {
		for i := 0; i < 3; i++ {
			if c&(1<<uint(i)) != 0 {
				offsets[c][i] = maxs2[i]
			} else {
				offsets[c][i] = mins2[i]
			}
		}
	}

	work := &traceWork{
		m:           m,
		start:       start2,
		end:         end2,
		mins:        mins2,
		maxs:        maxs2,
		offsets:     offsets,
		isPoint:     mins2 == maxs2,
		frac:        1,
		clipPlaneIx: -1,
	}

	if len(m.Nodes) > 0 {
		traceNode(work, 0, 0, 1, start2, end2)
	}

	var endpos mgl32.Vec3
	if work.frac < 1 {
		endpos = start.Add(end.Sub(start).Mul(work.frac))
	} else {
		endpos = end
	}

	res := Result{
		Frac:   work.frac,
		EndPos: endpos,
		Flags:  work.flags,
	}
	if work.clipPlaneIx >= 0 {
		res.Plane = &m.Planes[work.clipPlaneIx]
		res.PlaneInfo = &m.Planeinfo[work.clipPlaneIx]
	}
	return res
}

func traceNode(work *traceWork, nodeIndex int32, startFrac, endFrac float32, p1, p2 mgl32.Vec3) {
	if nodeIndex < 0 {
		traceLeaf(work, int(-nodeIndex-1))
		return
	}
	if int(nodeIndex) >= len(work.m.Nodes) {
		return
	}

	node := work.m.Nodes[nodeIndex]
	plane := work.m.Planes[node.Plane]
	pinfo := work.m.Planeinfo[node.Plane]

	var d1, d2, offset float32
	if pinfo.Type != bspfile.PlaneNonAxial {
		axis := int(pinfo.Type)
		d1 = p1[axis] - plane.Dist
		d2 = p2[axis] - plane.Dist
		offset = work.maxs[axis]
	} else {
		d1 = dot(p1, plane.Normal) - plane.Dist
		d2 = dot(p2, plane.Normal) - plane.Dist
		if work.isPoint {
			offset = 0
		} else {
			offset = nonAxialOffset
		}
	}

	if d1 >= offset+1 && d2 >= offset+1 {
		traceNode(work, node.Front, startFrac, endFrac, p1, p2)
		return
	}
	if d1 < -offset-1 && d2 < -offset-1 {
		traceNode(work, node.Back, startFrac, endFrac, p1, p2)
		return
	}

	var side int
	var frac1, frac2 float32
	switch {
	case d1 < d2:
		side = 1
		inv := 1 / (d1 - d2)
		frac1 = (d1 - offset + SurfClipEpsilon) * inv
		frac2 = (d1 + offset + SurfClipEpsilon) * inv
	case d1 > d2:
		side = 0
		inv := 1 / (d1 - d2)
		frac1 = (d1 + offset + SurfClipEpsilon) * inv
		frac2 = (d1 - offset - SurfClipEpsilon) * inv
	default:
		side = 0
		frac1 = 1
		frac2 = 0
	}
	frac1 = clamp01(frac1)
	frac2 = clamp01(frac2)

	nearChild, farChild := node.Front, node.Back
	if side == 1 {
		nearChild, farChild = node.Back, node.Front
	}

	mid1 := p1.Add(p2.Sub(p1).Mul(frac1))
	midFrac1 := startFrac + (endFrac-startFrac)*frac1
	traceNode(work, nearChild, startFrac, midFrac1, p1, mid1)

	mid2 := p1.Add(p2.Sub(p1).Mul(frac2))
	midFrac2 := startFrac + (endFrac-startFrac)*frac2
	traceNode(work, farChild, midFrac2, endFrac, mid2, p2)
}

func traceLeaf(work *traceWork, leafIndex int) {
	if leafIndex < 0 || leafIndex >= len(work.m.Leaves) {
		return
	}
	leaf := work.m.Leaves[leafIndex]

	for i := int32(0); i < leaf.NumLeafBrushes; i++ {
		brushIdx := work.m.LeafBrushes[leaf.LeafBrush+i]
		brush := work.m.Brushes[brushIdx]

		if int(brush.Texture) < 0 || int(brush.Texture) >= len(work.m.Textures) {
			continue
		}
		tex := work.m.Textures[brush.Texture]
		if !tex.Solid() || brush.NumBrushSides <= 0 {
			continue
		}

		traceBrush(work, brush)
		if work.frac == 0 {
			return
		}
	}
}

// tracePatch is a deliberate no-op: patch collision is out of scope
// (spec.md Non-goals). Kept so the leaf walk has a documented place to
// wire patch clipping in if that scope ever changes.
func tracePatch(work *traceWork, faceIndex int) {
	_ = work
	_ = faceIndex
}

func traceBrush(work *traceWork, brush bspfile.Brush) {
	startFrac := float32(-1)
	endFrac := float32(1)
	closestPlane := int32(-1)

	for i := int32(0); i < brush.NumBrushSides; i++ {
		side := work.m.BrushSides[brush.BrushSide+i]
		plane := work.m.Planes[side.Plane]
		pinfo := work.m.Planeinfo[side.Plane]

		offsetVec := work.offsets[pinfo.SignBits]
		dist := plane.Dist - dot(offsetVec, plane.Normal)

		d1 := dot(work.start, plane.Normal) - dist
		d2 := dot(work.end, plane.Normal) - dist

		if d1 > 0 {
			work.flags |= FlagStartsOut
		}
		if d2 > 0 {
			work.flags |= FlagEndsOut
		}

		if d1 > 0 && (d2 >= SurfClipEpsilon || d2 >= d1) {
			return
		}
		if d1 <= 0 && d2 <= 0 {
			continue
		}

		if d1 > d2 {
			f := (d1 - SurfClipEpsilon) / (d1 - d2)
			if f > startFrac {
				startFrac = f
				closestPlane = side.Plane
			}
		} else {
			f := (d1 + SurfClipEpsilon) / (d1 - d2)
			if f < endFrac {
				endFrac = f
			}
		}
	}

	if startFrac < endFrac && startFrac > -1 && startFrac < work.frac {
		work.frac = max32(startFrac, 0)
		work.clipPlaneIx = closestPlane
	}

	if work.flags&(FlagStartsOut|FlagEndsOut) == 0 {
		work.frac = 0
		work.flags |= FlagAllSolid
	}
}

func dot(a, b mgl32.Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
