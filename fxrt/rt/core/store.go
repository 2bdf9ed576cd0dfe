package core

import (
	"errors"
	"fmt"
	"math/rand"
	"unsafe"
)

// ErrCountMismatch is returned when a transform would change the record count.
var ErrCountMismatch = errors.New("particle count mismatch")

// DoubleBuffer tracks which of the two particle buffers is read this tick.
// The destination is always the other index, so the pair stays a permutation of {0,1}.
type DoubleBuffer struct {
	source int
}

func (d DoubleBuffer) Source() int      { return d.source }
func (d DoubleBuffer) Destination() int { return 1 - d.source }

// Swap flips the roles. No data moves.
func (d *DoubleBuffer) Swap() { d.source ^= 1 }

// SeedFunc produces the initial record for particle i.
type SeedFunc[P any] func(i int, rng *rand.Rand) P

// Store holds N particle records twice. Buffer 0 starts as the seeded source,
// buffer 1 starts zeroed. The count never changes after creation.
type Store[P any] struct {
	DoubleBuffer
	buffers [2][]P
}

func NewStore[P any](count int, seed SeedFunc[P], rng *rand.Rand) (*Store[P], error) {
	if count <= 0 {
		return nil, fmt.Errorf("store: particle count must be positive, got %d", count)
	}
	if seed == nil {
		return nil, errors.New("store: nil seed function")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	source := make([]P, count)
	for i := range source {
		source[i] = seed(i, rng)
	}

	return &Store[P]{
		buffers: [2][]P{source, make([]P, count)},
	}, nil
}

func (s *Store[P]) Len() int { return len(s.buffers[0]) }

// Buffer returns backing buffer 0 or 1.
func (s *Store[P]) Buffer(i int) []P { return s.buffers[i] }

// Bytes views buffer i as raw bytes for device upload.
func (s *Store[P]) Bytes(i int) []byte {
	buf := s.buffers[i]
	if len(buf) == 0 {
		return nil
	}
	size := len(buf) * int(unsafe.Sizeof(buf[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), size)
}
