package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleBuffer_Parity(t *testing.T) {
	var d DoubleBuffer
	for tick := 0; tick < 9; tick++ {
		assert.Equal(t, tick%2, d.Source(), "tick %d", tick)
		assert.Equal(t, 1, d.Source()+d.Destination())
		assert.NotEqual(t, d.Source(), d.Destination())
		d.Swap()
	}
}

func TestNewStore(t *testing.T) {
	calls := 0
	seed := func(i int, rng *rand.Rand) BlackHoleParticle {
		calls++
		return BlackHoleParticle{Life: float32(i + 1)}
	}

	store, err := NewStore(16, seed, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, 16, calls)
	assert.Equal(t, 16, store.Len())
	assert.Len(t, store.Buffer(1), 16)
	assert.Equal(t, float32(1), store.Buffer(0)[0].Life)
	assert.Equal(t, BlackHoleParticle{}, store.Buffer(1)[15])
	assert.Equal(t, 0, store.Source())
	assert.Len(t, store.Bytes(0), 16*52)
}

func TestNewStore_Invalid(t *testing.T) {
	_, err := NewStore(0, RingSeed, nil)
	assert.Error(t, err)

	_, err = NewStore[BlackHoleParticle](4, nil, nil)
	assert.Error(t, err)
}

func TestStore_BytesAliasBuffer(t *testing.T) {
	store, err := NewStore(2, DiskSeed, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	b := store.Bytes(1)
	b[0] = 0xff
	assert.NotZero(t, store.Buffer(1)[0].Position[0])
}
