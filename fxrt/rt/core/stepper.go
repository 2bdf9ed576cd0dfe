package core

import (
	"errors"
	"fmt"
)

// Program selects which transform a Feedback backend runs.
type Program int

const (
	ProgramUpdate Program = iota
	ProgramInit
)

func (p Program) String() string {
	switch p {
	case ProgramUpdate:
		return "update"
	case ProgramInit:
		return "init"
	default:
		return fmt.Sprintf("program(%d)", int(p))
	}
}

// Feedback transforms every record of buffer src into buffer dst, one output
// per input, same count and layout.
type Feedback interface {
	Transform(prog Program, src, dst int, u *Uniforms) error
}

// CPUFeedback applies kernels element-wise over a Store.
type CPUFeedback[P any] struct {
	Store   *Store[P]
	Kernels map[Program]Kernel[P]
}

func NewCPUFeedback[P any](store *Store[P], update, init Kernel[P]) *CPUFeedback[P] {
	kernels := map[Program]Kernel[P]{ProgramUpdate: update}
	if init != nil {
		kernels[ProgramInit] = init
	}
	return &CPUFeedback[P]{Store: store, Kernels: kernels}
}

func (f *CPUFeedback[P]) Transform(prog Program, src, dst int, u *Uniforms) error {
	kernel := f.Kernels[prog]
	if kernel == nil {
		return fmt.Errorf("cpu feedback: no %s kernel", prog)
	}
	if src == dst {
		return fmt.Errorf("cpu feedback: source and destination are both buffer %d", src)
	}

	in, out := f.Store.Buffer(src), f.Store.Buffer(dst)
	if len(in) != len(out) {
		return fmt.Errorf("%w: %d -> %d", ErrCountMismatch, len(in), len(out))
	}
	for i := range in {
		out[i] = kernel(in[i], u)
	}
	return nil
}

type StepState int

const (
	StepIdle StepState = iota
	StepStepping
)

// Stepper advances the particle store by one tick: progress update, transform
// from source to destination, then swap.
type Stepper struct {
	buffers  *DoubleBuffer
	table    BindingTable
	count    int
	backend  Feedback
	progress Progress
	seed     float32

	state StepState
	ticks uint64

	awaitInit   bool
	initialized bool
}

// NewStepper checks the binding table once and keeps it for the process lifetime.
// seed offsets the time uniform so several instances never move in lockstep.
func NewStepper(buffers *DoubleBuffer, table BindingTable, count int, backend Feedback, progress Progress, seed float32) (*Stepper, error) {
	if buffers == nil || backend == nil || progress == nil {
		return nil, errors.New("stepper: buffers, backend and progress are required")
	}
	if count <= 0 {
		return nil, fmt.Errorf("stepper: particle count must be positive, got %d", count)
	}
	if err := table.Verify(); err != nil {
		return nil, fmt.Errorf("stepper: %w", err)
	}
	return &Stepper{
		buffers:  buffers,
		table:    table,
		count:    count,
		backend:  backend,
		progress: progress,
		seed:     seed,
	}, nil
}

// AwaitInit holds the update program back until Init has run once. Progress
// still advances on every Step.
func (s *Stepper) AwaitInit() { s.awaitInit = true }

// Ready reports whether Step runs the update program.
func (s *Stepper) Ready() bool { return !s.awaitInit || s.initialized }

// Step runs one simulation tick at the given elapsed time in seconds.
func (s *Stepper) Step(elapsed float64) error {
	if s.state == StepStepping {
		return ErrReentrantStep
	}
	s.state = StepStepping
	defer func() { s.state = StepIdle }()

	s.progress.Update()
	if !s.Ready() {
		return nil
	}
	u := Uniforms{
		Time:   float32(elapsed) + s.seed,
		Offset: s.progress.Value(),
		Count:  uint32(s.count),
	}
	if s.progress.Closing() {
		u.Closing = 1
	}

	if err := s.transform(ProgramUpdate, &u); err != nil {
		return err
	}
	s.ticks++
	return nil
}

// Init runs the init program once with the caller's pose and camera inputs.
func (s *Stepper) Init(u *Uniforms) error {
	if s.state == StepStepping {
		return ErrReentrantStep
	}
	s.state = StepStepping
	defer func() { s.state = StepIdle }()

	u.Count = uint32(s.count)
	u.Offset = s.progress.Value()
	if err := s.transform(ProgramInit, u); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

func (s *Stepper) transform(prog Program, u *Uniforms) error {
	src, dst := s.buffers.Source(), s.buffers.Destination()
	if err := s.backend.Transform(prog, src, dst, u); err != nil {
		return Fatal(fmt.Errorf("%s transform %d->%d: %w", prog, src, dst, err))
	}
	s.buffers.Swap()
	return nil
}

func (s *Stepper) State() StepState    { return s.state }
func (s *Stepper) Ticks() uint64       { return s.ticks }
func (s *Stepper) Count() int          { return s.count }
func (s *Stepper) Source() int         { return s.buffers.Source() }
func (s *Stepper) Destination() int    { return s.buffers.Destination() }
func (s *Stepper) Progress() Progress  { return s.progress }
func (s *Stepper) Table() BindingTable { return s.table }
func (s *Stepper) Binding() Binding    { return s.table[s.buffers.Source()] }
