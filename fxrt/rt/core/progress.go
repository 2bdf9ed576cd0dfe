package core

// Progress produces the [0,1] animation value fed to the kernels each tick.
type Progress interface {
	Update()
	Value() float32
	Closing() bool
}

// Toggle is the two-step open/close controller. The first trigger starts the ramp,
// the second marks it closing, and the trigger after Threshold restarts the cycle.
type Toggle struct {
	Step      float32
	Threshold int

	value    float32
	triggers int
}

func NewToggle(step float32, threshold int) *Toggle {
	return &Toggle{Step: step, Threshold: threshold}
}

// Update ramps the value by Step while at least one trigger is active.
func (t *Toggle) Update() {
	if t.triggers < 1 {
		return
	}
	t.value += t.Step
	t.value = clamp01(t.value)
}

func (t *Toggle) Value() float32 { return t.value }
func (t *Toggle) Triggers() int  { return t.triggers }
func (t *Toggle) Closing() bool  { return t.triggers > 1 }

// Trigger counts a user trigger. When the count exceeds Threshold the value
// drops to 0, the count restarts at 1 and reset is reported.
func (t *Toggle) Trigger() (reset bool) {
	t.triggers++
	if t.triggers > t.Threshold {
		t.value = 0
		t.triggers = 1
		return true
	}
	return false
}

// EaseNumber is a single-pole filter: value += (target - value) * easing.
type EaseNumber struct {
	value  float32
	target float32
	Easing float32
}

func NewEaseNumber(value, easing float32) *EaseNumber {
	return &EaseNumber{value: value, target: value, Easing: easing}
}

func (e *EaseNumber) Update() {
	e.value += (e.target - e.value) * e.Easing
}

func (e *EaseNumber) Value() float32  { return e.value }
func (e *EaseNumber) Target() float32 { return e.target }

// Closing reports whether the value is heading down.
func (e *EaseNumber) Closing() bool { return e.target < e.value }

// SetTo moves the target and lets Update ease toward it.
func (e *EaseNumber) SetTo(target float32) { e.target = target }

// SetValue jumps straight to v.
func (e *EaseNumber) SetValue(v float32) {
	e.value = v
	e.target = v
}

// Open restarts the ease from 0 toward 1.
func (e *EaseNumber) Open() {
	e.value = 0
	e.target = 1
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
