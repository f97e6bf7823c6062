// Package client is the window/input collaborator: it owns the GLFW
// window and translates raw keyboard/mouse state into the Movement
// Controller's per-tick Input, adapted from the teacher's WindowHandler/
// InputHandler pair for the CPM wish-vector contract instead of a free
// camera fly-around.
package client

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/samuelyuan/q3playground/movement"
)

// cl_forwardspeed / cl_sidespeed per the input contract.
const (
	ClForwardSpeed = 400
	ClSideSpeed    = 350
)

type Action int

const (
	ActionForward Action = iota
	ActionBack
	ActionLeft
	ActionRight
	ActionJump
	ActionNoclipToggle
	ActionQuit
)

// InputHandler tracks held keys and accumulated cursor motion between
// ticks, mirroring the teacher's buffered-cursor-delta approach so a
// slow tick rate doesn't drop mouse movement that happened between
// polls.
type InputHandler struct {
	actionToKeyMap map[Action]glfw.Key
	keysPressed    [glfw.KeyLast]bool
	noclipEdge     bool

	firstCursorAction    bool
	cursor               mgl64.Vec2
	cursorChange         mgl64.Vec2
	cursorLast           mgl64.Vec2
	bufferedCursorChange mgl64.Vec2
}

func NewInputHandler() *InputHandler {
	return &InputHandler{
		actionToKeyMap: map[Action]glfw.Key{
			ActionForward:      glfw.KeyW,
			ActionBack:         glfw.KeyS,
			ActionLeft:         glfw.KeyA,
			ActionRight:        glfw.KeyD,
			ActionJump:         glfw.KeySpace,
			ActionNoclipToggle: glfw.KeyN,
			ActionQuit:         glfw.KeyEscape,
		},
		firstCursorAction: true,
	}
}

func (h *InputHandler) IsActive(a Action) bool {
	return h.keysPressed[h.actionToKeyMap[a]]
}

func (h *InputHandler) keyCallback(window *glfw.Window, key glfw.Key, scancode int,
	action glfw.Action, mods glfw.ModifierKey) {

	switch action {
	case glfw.Press:
		h.keysPressed[key] = true
	case glfw.Release:
		h.keysPressed[key] = false
	}
}

func (h *InputHandler) mouseCallback(window *glfw.Window, xPos, yPos float64) {
	if h.firstCursorAction {
		h.cursorLast[0] = xPos
		h.cursorLast[1] = yPos
		h.firstCursorAction = false
	}

	h.bufferedCursorChange[0] += xPos - h.cursorLast[0]
	h.bufferedCursorChange[1] += h.cursorLast[1] - yPos

	h.cursorLast[0] = xPos
	h.cursorLast[1] = yPos
}

// updateCursor drains the buffered cursor delta into this tick's value.
// Called once per frame by WindowHandler.StartFrame.
func (h *InputHandler) updateCursor() {
	h.cursorChange = h.bufferedCursorChange
	h.cursor = h.cursorLast
	h.bufferedCursorChange = mgl64.Vec2{}
}

// BuildInput turns currently-held actions into one tick's movement.Input.
// Forward/Strafe are scaled to cl_forwardspeed/cl_sidespeed, matching the
// external input contract; a noclip toggle key-press (not held) flips
// movement.Input.NoclipToggle exactly once per press.
func (h *InputHandler) BuildInput() movement.Input {
	var in movement.Input

	if h.IsActive(ActionForward) {
		in.Forward += ClForwardSpeed
	}
	if h.IsActive(ActionBack) {
		in.Forward -= ClForwardSpeed
	}
	if h.IsActive(ActionRight) {
		in.Strafe += ClSideSpeed
	}
	if h.IsActive(ActionLeft) {
		in.Strafe -= ClSideSpeed
	}

	in.JumpHeld = h.IsActive(ActionJump)

	noclipHeld := h.IsActive(ActionNoclipToggle)
	if noclipHeld && !h.noclipEdge {
		in.NoclipToggle = true
	}
	h.noclipEdge = noclipHeld

	in.LookDX = float32(h.cursorChange[0])
	in.LookDY = float32(h.cursorChange[1])

	return in
}

func (h *InputHandler) ShouldQuit() bool {
	return h.IsActive(ActionQuit)
}
