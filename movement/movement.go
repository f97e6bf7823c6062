// Package movement integrates one tick of CPM-style player physics:
// gravity, friction, ground/air acceleration, jump latching, and the
// iterative slide-and-bump response that consumes package trace. Like
// the tracer it depends on, it is a total function over a loaded map:
// no I/O, no allocation beyond the small per-tick clip-plane slice, no
// error surface.
package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samuelyuan/q3playground/bspfile"
	"github.com/samuelyuan/q3playground/trace"
)

// Flags is the player's movement state bitset (§3 Data Model).
type Flags uint8

const (
	FlagJumpHeld Flags = 1 << iota
	FlagJumpThisFrame
	FlagAirborne
)

// Movement tuning constants, named after their Quake/CPM counterparts.
const (
	SvMaxSpeed              = 320
	ClStopSpeed             = 200
	ClMovementFriction      = 8
	ClMovementAccelerate    = 15
	ClMovementAirAccelerate = 7
	CpmAirStopAcceleration  = 2.5
	CpmStrafeAcceleration   = 70
	CpmWishSpeed            = 30
	SvGravity               = 800
	JumpVelocity            = 270
	Overbounce              = 1.001
	MaxClipPlanes           = 5
	MaxBumps                = 4
	GroundTraceDistance     = 0.25
	LookSensitivity         = 0.002
)

// PlayerMins/PlayerMaxs are the fixed, asymmetric player hitbox (§3).
var (
	PlayerMins = mgl32.Vec3{-15, -15, -24}
	PlayerMaxs = mgl32.Vec3{15, 15, 32}
)

// PlayerState is exclusively owned by the movement controller.
type PlayerState struct {
	Pos      mgl32.Vec3
	Velocity mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Flags    Flags

	// GroundPlane is set while on ground and cleared while airborne; it
	// references a plane stored in the map, never owned here.
	GroundPlane *bspfile.Plane

	Noclip bool

	// jumpKeyDown is the previous tick's Input.JumpHeld, so FlagJumpHeld
	// latches only on a fresh press.
	jumpKeyDown bool
}

func (s *PlayerState) Airborne() bool        { return s.Flags&FlagAirborne != 0 }
func (s *PlayerState) JumpThisFrame() bool   { return s.Flags&FlagJumpThisFrame != 0 }
func (s *PlayerState) JumpHeld() bool        { return s.Flags&FlagJumpHeld != 0 }
func (s *PlayerState) GroundNormal() (mgl32.Vec3, bool) {
	if s.GroundPlane == nil {
		return mgl32.Vec3{}, false
	}
	n := s.GroundPlane.Normal
	return mgl32.Vec3{n[0], n[1], n[2]}, true
}

func setFlag(f Flags, bit Flags, on bool) Flags {
	if on {
		return f | bit
	}
	return f &^ bit
}

// Input is one tick's external input (§6 Input contract). Forward/Strafe/
// Up are the local wish vector already scaled by the caller's magnitudes
// (cl_forwardspeed=400, cl_sidespeed=350, 0). LookDX/LookDY are raw mouse
// pixels; the 0.002 sensitivity is applied inside Tick.
type Input struct {
	Forward, Strafe, Up float32
	LookDX, LookDY      float32
	JumpHeld            bool
	NoclipToggle        bool
}

// Tick advances state by dt seconds against map m, in the fixed order
// specified by §4.E: ground trace, input rotation, wishspeed decompose,
// jump, friction, acceleration, air control, integrate, clear latch.
func Tick(m *bspfile.Map, s *PlayerState, in Input, dt float32) {
	if in.NoclipToggle {
		s.Noclip = !s.Noclip
	}

	s.Yaw = normalizeAngle(s.Yaw + in.LookDX*LookSensitivity)
	s.Pitch = normalizeAngle(s.Pitch + in.LookDY*LookSensitivity)

	// A press sets the latch, a release clears it; keeping the key held
	// after a jump has consumed the latch does not set it again.
	if in.JumpHeld && !s.jumpKeyDown {
		s.Flags |= FlagJumpHeld
	} else if !in.JumpHeld {
		s.Flags &^= FlagJumpHeld
	}
	s.jumpKeyDown = in.JumpHeld

	// 1. Ground trace.
	groundEnd := s.Pos.Sub(mgl32.Vec3{0, 0, GroundTraceDistance})
	groundTr := trace.Trace(m, s.Pos, groundEnd, PlayerMins, PlayerMaxs)
	if groundTr.Frac == 1 || s.JumpThisFrame() {
		s.Flags |= FlagAirborne
		s.GroundPlane = nil
	} else {
		s.Flags &^= FlagAirborne
		s.GroundPlane = groundTr.Plane
	}

	// 2. Rotate input into world space.
	wish := rotateWish(mgl32.Vec3{in.Forward, in.Strafe, in.Up}, s.Yaw, s.Pitch, s.Noclip)

	// 3. Decompose into direction + wishspeed, clamp to sv_max_speed.
	baseWishSpeed := wish.Len()
	wishSpeed := baseWishSpeed
	if wishSpeed > SvMaxSpeed {
		wishSpeed = SvMaxSpeed
	}
	var dir mgl32.Vec3
	if baseWishSpeed > 0 {
		dir = wish.Mul(1 / baseWishSpeed)
	}

	// 4. Jump.
	if s.JumpHeld() && (!s.Airborne() || s.Noclip) {
		s.Flags |= FlagJumpThisFrame
		s.Velocity[2] = JumpVelocity
		s.Flags &^= FlagJumpHeld
	}

	// 5. Friction.
	skipFriction := (s.Airborne() || s.JumpThisFrame()) && !s.Noclip
	if !skipFriction {
		s.Velocity = applyFriction(s.Velocity, dt)
	}

	// 6. Acceleration selection.
	isAir := s.Airborne() || s.JumpThisFrame() || s.Noclip
	pureStrafe := in.Forward == 0 && in.Strafe != 0
	accel := float32(ClMovementAccelerate)
	accelWishSpeed := wishSpeed
	if isAir {
		if accelWishSpeed > CpmWishSpeed {
			accelWishSpeed = CpmWishSpeed
		}
		cur := dot(s.Velocity, dir)
		if cur < 0 {
			accel = CpmAirStopAcceleration
		} else {
			accel = ClMovementAirAccelerate
		}
		if pureStrafe {
			accel = CpmStrafeAcceleration
			accelWishSpeed = CpmWishSpeed
		}
	}

	// 7. Apply acceleration.
	cur := dot(s.Velocity, dir)
	add := accelWishSpeed - cur
	if add > 0 {
		accelAmount := accel * dt * accelWishSpeed
		if accelAmount > add {
			accelAmount = add
		}
		s.Velocity = s.Velocity.Add(dir.Mul(accelAmount))
	}

	// 8. Air control.
	if isAir && in.Forward != 0 && baseWishSpeed > 0 {
		vz := s.Velocity[2]
		s.Velocity[2] = 0
		speed := s.Velocity.Len()
		if speed > 0 {
			unitV := s.Velocity.Mul(1 / speed)
			d := dot(unitV, dir)
			// k mirrors the source's dead store: computed, then never
			// folded into velocity. Only the renormalize-and-rescale
			// survives.
			k := 32 * d * d * dt
			_ = k
			if d > 0 {
				s.Velocity = s.Velocity.Normalize().Mul(speed)
			}
		}
		s.Velocity[2] = vz
	}

	// 9. Integrate.
	if s.Noclip {
		s.Pos = s.Pos.Add(s.Velocity.Mul(dt))
	} else {
		slide(m, s, dt, true)
	}

	// 10. Clear jump latch.
	s.Flags &^= FlagJumpThisFrame
}

func applyFriction(velocity mgl32.Vec3, dt float32) mgl32.Vec3 {
	speed := velocity.Len()
	if speed < 1 {
		velocity[0] = 0
		velocity[1] = 0
		return velocity
	}
	control := float32(ClStopSpeed)
	if speed > control {
		control = speed
	}
	newSpeed := speed - control*ClMovementFriction*dt
	if newSpeed < 0 {
		newSpeed = 0
	}
	return velocity.Mul(newSpeed / speed)
}

// slide is the iterative slide-and-bump response (§4.E Slide-and-bump).
func slide(m *bspfile.Map, s *PlayerState, dt float32, gravity bool) {
	endVelocity := s.Velocity
	if gravity {
		endVelocity[2] -= SvGravity * dt
	}
	s.Velocity[2] = (endVelocity[2] + s.Velocity[2]) / 2

	if n, ok := s.GroundNormal(); ok {
		s.Velocity = clipVelocity(s.Velocity, n, Overbounce)
	}

	planes := make([]mgl32.Vec3, 0, MaxClipPlanes)
	if n, ok := s.GroundNormal(); ok {
		planes = append(planes, n)
	}
	if l := s.Velocity.Len(); l > 0 {
		planes = append(planes, s.Velocity.Mul(1/l))
	}

	timeLeft := dt

	for bump := 0; bump < MaxBumps; bump++ {
		if timeLeft <= 0 {
			break
		}
		end := s.Pos.Add(s.Velocity.Mul(timeLeft))
		tr := trace.Trace(m, s.Pos, end, PlayerMins, PlayerMaxs)

		if tr.Frac > 0 {
			s.Pos = tr.EndPos
		}
		if tr.Frac == 1 {
			break
		}

		timeLeft -= timeLeft * tr.Frac

		if len(planes) >= MaxClipPlanes {
			s.Velocity = mgl32.Vec3{}
			break
		}
		if tr.Plane == nil {
			break
		}
		n := tr.Plane.Normal
		normal := mgl32.Vec3{n[0], n[1], n[2]}

		dup := false
		for _, p := range planes {
			if dot(normal, p) > 0.99 {
				s.Velocity = s.Velocity.Add(normal)
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		planes = append(planes, normal)
		s.Velocity = resolveSlidePlanes(s.Velocity, planes)
	}

	if gravity {
		s.Velocity = endVelocity
	}
}

// resolveSlidePlanes clips velocity against every plane it still opposes,
// sliding along the crease of two planes when one clip reintroduces the
// other, and zeroing velocity on a triple-plane interaction.
func resolveSlidePlanes(velocity mgl32.Vec3, planes []mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < len(planes); i++ {
		if dot(velocity, planes[i]) >= 0.1 {
			continue
		}
		velocity = clipVelocity(velocity, planes[i], Overbounce)

		for j := 0; j < len(planes); j++ {
			if j == i {
				continue
			}
			if dot(velocity, planes[j]) >= 0.1 {
				continue
			}
			velocity = clipVelocity(velocity, planes[j], Overbounce)

			if dot(velocity, planes[i]) >= 0 {
				continue
			}

			dir := planes[i].Cross(planes[j])
			if l := dir.Len(); l > 1e-8 {
				dir = dir.Mul(1 / l)
			} else {
				dir = mgl32.Vec3{}
			}
			d := dot(dir, velocity)
			velocity = dir.Mul(d)

			for k := 0; k < len(planes); k++ {
				if k == i || k == j {
					continue
				}
				if dot(velocity, planes[k]) >= 0.1 {
					continue
				}
				velocity = mgl32.Vec3{}
				break
			}
		}
	}
	return velocity
}

func clipVelocity(v, n mgl32.Vec3, overbounce float32) mgl32.Vec3 {
	b := dot(v, n)
	if b < 0 {
		b *= overbounce
	} else {
		b /= overbounce
	}
	return v.Sub(n.Mul(b))
}

// rotateWish applies pitch then yaw to a local {forward, strafe, up} wish
// vector, in that order, matching update()'s pitch_x/velocity composition.
// In noclip, pitch is applied as well as yaw; otherwise pitch_sin is
// forced to 0 / pitch_cos to 1 so vertical look never tilts ground
// movement. Both rotations use the source's 2π-angle sign convention.
func rotateWish(wish mgl32.Vec3, yaw, pitch float32, noclip bool) mgl32.Vec3 {
	ry := float32(2*math.Pi) - yaw
	sy, cy := sincos(ry)

	var sp, cp float32 = 0, 1
	if noclip {
		rp := float32(2*math.Pi) - pitch
		sp, cp = sincos(rp)
	}

	pitchX := wish[0]*cp - wish[2]*sp
	return mgl32.Vec3{
		pitchX*cy - wish[1]*sy,
		pitchX*sy + wish[1]*cy,
		wish[0]*sp + wish[2]*cp,
	}
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}

func normalizeAngle(a float32) float32 {
	twoPi := float32(2 * math.Pi)
	for a < 0 {
		a += twoPi
	}
	for a >= twoPi {
		a -= twoPi
	}
	return a
}

func dot(a, b mgl32.Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
