package swarm

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeySpace int = iota
	KeyEnter
	KeyEscape
	KeyR
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	keyCount
)

var keyToGlfw = map[int]glfw.Key{
	KeySpace:  glfw.KeySpace,
	KeyEnter:  glfw.KeyEnter,
	KeyEscape: glfw.KeyEscape,
	KeyR:      glfw.KeyR,
}

var buttonToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}

// Input is the per-frame view of the keyboard and mouse. A trigger is a left
// click or a space press, the desktop stand-in for a screen tap.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64

	WindowWidth, WindowHeight int
	FramebufferWidth          int
	FramebufferHeight         int

	// Synthetic triggers queued by code, consumed by the next frame.
	pending int
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(Prelude),
	)
}

// Triggered reports whether a tap happened this frame.
func (in *Input) Triggered() bool {
	return in.JustPressed[MouseButtonLeft] || in.JustPressed[KeySpace] || in.pending > 0
}

// Trigger queues a synthetic tap for the next frame.
func (in *Input) Trigger() { in.pending++ }

// consumeTriggers returns the taps of this frame, synthetic and real, and
// clears them. A press counts once however often it is asked.
func (in *Input) consumeTriggers() int {
	n := in.pending
	in.pending = 0
	for _, key := range []int{MouseButtonLeft, KeySpace} {
		if in.JustPressed[key] {
			in.JustPressed[key] = false
			n++
		}
	}
	return n
}

// Drag is the cursor motion this frame while the right button is held.
func (in *Input) Drag() (float64, float64) {
	if !in.Pressed[MouseButtonRight] {
		return 0, 0
	}
	return in.MouseDeltaX, in.MouseDeltaY
}

func (in *Input) setButton(key int, down bool) {
	in.JustPressed[key] = down && !in.Pressed[key]
	in.JustReleased[key] = !down && in.Pressed[key]
	in.Pressed[key] = down
}

func (in *Input) moveCursor(x, y float64) {
	in.MouseDeltaX = x - in.MouseX
	in.MouseDeltaY = y - in.MouseY
	in.MouseX = x
	in.MouseY = y
}

func inputSystem(s *WindowState, input *Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.setButton(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	for btn, glfwBtn := range buttonToGlfw {
		input.setButton(btn, s.windowGlfw.GetMouseButton(glfwBtn) == glfw.Press)
	}

	input.moveCursor(s.windowGlfw.GetCursorPos())

	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()
	input.FramebufferWidth, input.FramebufferHeight = s.windowGlfw.GetFramebufferSize()

	if input.JustPressed[KeyEscape] {
		s.windowGlfw.SetShouldClose(true)
	}
}
