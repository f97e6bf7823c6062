package movement_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/samuelyuan/q3playground/bspfile/bsptest"
	"github.com/samuelyuan/q3playground/movement"
)

func TestGroundFrictionDecaysSpeed(t *testing.T) {
	m := bsptest.SingleBoxMap([3]float32{-1000, -1000, -64}, [3]float32{1000, 1000, 0})

	// Player origin sits 24.1 units above the floor's top face; with
	// PlayerMins.Z = -24 the hitbox's feet are 0.1 above the surface,
	// within the 0.25 ground-trace distance.
	s := &movement.PlayerState{
		Pos:      mgl32.Vec3{0, 0, 24.1},
		Velocity: mgl32.Vec3{300, 0, 0},
	}
	in := movement.Input{}
	dt := float32(0.1)

	movement.Tick(m, s, in, dt)

	// control = max(200, 300) = 300; newSpeed = 300 - 300*8*0.1 = 60.
	assert.InDelta(t, 60, float64(s.Velocity[0]), 1.0)
	assert.InDelta(t, 0, float64(s.Velocity[1]), 1e-3)
}

func TestAirAccelerationConvergesToStrafeCap(t *testing.T) {
	m := bsptest.EmptyMap()

	s := &movement.PlayerState{
		Pos: mgl32.Vec3{0, 0, 1000},
	}
	in := movement.Input{Strafe: 350}
	dt := float32(0.02)

	var lastHoriz float32
	for i := 0; i < 20; i++ {
		movement.Tick(m, s, in, dt)
		horiz := mgl32.Vec2{s.Velocity[0], s.Velocity[1]}.Len()
		assert.LessOrEqual(t, horiz, float32(movement.CpmWishSpeed)+1e-2)
		lastHoriz = horiz
	}
	assert.InDelta(t, movement.CpmWishSpeed, float64(lastHoriz), 0.5)
}

func TestJumpLatchesAndDoesNotAutoBunnyhop(t *testing.T) {
	m := bsptest.SingleBoxMap([3]float32{-1000, -1000, -64}, [3]float32{1000, 1000, 0})

	s := &movement.PlayerState{
		Pos: mgl32.Vec3{0, 0, 24.1},
	}
	in := movement.Input{JumpHeld: true}
	dt := float32(0.05)

	movement.Tick(m, s, in, dt)
	velAfterJump := s.Velocity[2]
	assert.Greater(t, velAfterJump, float32(200))

	movement.Tick(m, s, in, dt)
	velAfterSecondTick := s.Velocity[2]

	// Still holding jump, but the first tick consumed the latch: no second
	// impulse should be applied, the upward velocity only decays.
	assert.Less(t, velAfterSecondTick, velAfterJump)
}

func TestNoclipPitchRotatesForwardWishDownward(t *testing.T) {
	m := bsptest.EmptyMap()

	// Looking down (positive pitch) and holding forward in noclip should
	// rotate the wish vector toward -Z, matching update()'s
	// velocity[2] = wishdir[0]*pitch_sin + wishdir[2]*pitch_cos.
	s := &movement.PlayerState{
		Pos:    mgl32.Vec3{0, 0, 0},
		Noclip: true,
		Pitch:  0.5,
	}
	in := movement.Input{Forward: 400}
	dt := float32(0.01)

	movement.Tick(m, s, in, dt)

	assert.Less(t, s.Velocity[2], float32(0))
}

func TestSlideStopsShortOfSolidWall(t *testing.T) {
	m := bsptest.SingleBoxMap([3]float32{10, -1000, -1000}, [3]float32{1000, 1000, 1000})

	s := &movement.PlayerState{
		Pos:      mgl32.Vec3{9, 0, 0},
		Velocity: mgl32.Vec3{50, 50, 0},
	}
	in := movement.Input{}
	dt := float32(0.1)

	movement.Tick(m, s, in, dt)

	assert.Less(t, s.Pos[0], float32(10.1))
}
