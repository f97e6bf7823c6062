package client

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowHandler owns the GLFW window and frame timing, adapted from the
// teacher's WindowHandler to add fullscreen/display-index selection
// (spec's -window/-d flags) on top of the original's always-windowed
// mode.
type WindowHandler struct {
	glfwWindow   *glfw.Window
	InputHandler *InputHandler

	firstFrame    bool
	deltaTime     float64
	lastFrameTime float64
}

// NewWindowHandler creates the GL window. windowed selects a bordered
// window of width x height; otherwise the window covers displayIndex's
// monitor in fullscreen.
func NewWindowHandler(width, height, displayIndex int, windowed bool, title string) (*WindowHandler, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("client: init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor
	if !windowed {
		monitors := glfw.GetMonitors()
		if displayIndex >= 0 && displayIndex < len(monitors) {
			monitor = monitors[displayIndex]
		} else {
			monitor = glfw.GetPrimaryMonitor()
		}
		mode := monitor.GetVideoMode()
		width, height = mode.Width, mode.Height
	}

	glfwWindow, err := glfw.CreateWindow(width, height, title, monitor, nil)
	if err != nil {
		return nil, fmt.Errorf("client: create window: %w", err)
	}
	glfwWindow.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("client: init gl: %w", err)
	}

	glfwWindow.SetSizeCallback(resizeCallback)
	glfwWindow.GetSize()

	inputHandler := NewInputHandler()
	glfwWindow.SetKeyCallback(inputHandler.keyCallback)
	glfwWindow.SetCursorPosCallback(inputHandler.mouseCallback)
	glfwWindow.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return &WindowHandler{
		glfwWindow:   glfwWindow,
		InputHandler: inputHandler,
		firstFrame:   true,
	}, nil
}

func resizeCallback(w *glfw.Window, width int, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// StartFrame swaps buffers, polls events, and advances frame timing.
// Call once per iteration of the main loop, before reading input.
func (w *WindowHandler) StartFrame() {
	w.glfwWindow.SwapBuffers()
	glfw.PollEvents()

	currentFrameTime := glfw.GetTime()
	if w.firstFrame {
		w.lastFrameTime = currentFrameTime
		w.firstFrame = false
	}
	w.deltaTime = currentFrameTime - w.lastFrameTime
	w.lastFrameTime = currentFrameTime

	w.InputHandler.updateCursor()

	if w.InputHandler.ShouldQuit() {
		w.glfwWindow.SetShouldClose(true)
	}
}

func (w *WindowHandler) ShouldClose() bool {
	return w.glfwWindow.ShouldClose()
}

func (w *WindowHandler) DeltaTime() float64 {
	return w.deltaTime
}

func (w *WindowHandler) Size() (int, int) {
	return w.glfwWindow.GetSize()
}

// Terminate releases GLFW resources. Call once, after the main loop
// exits.
func (w *WindowHandler) Terminate() {
	glfw.Terminate()
}
