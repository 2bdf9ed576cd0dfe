package core

import (
	"math/rand"

	"github.com/chewxy/math32"
)

const (
	RingBaseRadius = 3.0
	RingMinRadius  = 2.0
	RingMaxRadius  = 2.5
	RingZRange     = 0.1
	ringNoiseScale = 0.2

	DiskRadius = 0.1
	DiskYRange = 0.01
)

func randRange(rng *rand.Rand, lo, hi float32) float32 {
	return lo + rng.Float32()*(hi-lo)
}

// RingSeed scatters particles on a noisy ring around the origin in the XY plane.
func RingSeed(i int, rng *rand.Rand) BlackHoleParticle {
	a := rng.Float32() * math32.Pi * 2
	cos, sin := math32.Cos(a), math32.Sin(a)
	z := randRange(rng, -RingZRange, RingZRange)

	s := FBm(cos*RingBaseRadius, sin*RingBaseRadius, z) * ringNoiseScale
	r := randRange(rng, RingMinRadius, RingMaxRadius)
	pos := [3]float32{cos * r * (1 + s), sin * r * (1 + s), z}

	return BlackHoleParticle{
		Position: pos,
		Origin:   pos,
		Random:   [3]float32{rng.Float32(), rng.Float32(), rng.Float32()},
		Life:     randRange(rng, 0.01, 1.0),
	}
}

// DiskSeed scatters particles uniformly over a thin horizontal disk.
func DiskSeed(i int, rng *rand.Rand) PixelParticle {
	a := rng.Float32() * math32.Pi * 2
	r := math32.Sqrt(rng.Float32()) * DiskRadius
	pos := [3]float32{
		math32.Cos(a) * r,
		randRange(rng, -DiskYRange, DiskYRange),
		math32.Sin(a) * r,
	}

	return PixelParticle{
		Position: pos,
		Origin:   pos,
		Color:    [3]float32{rng.Float32(), rng.Float32(), rng.Float32()},
		Extra:    [3]float32{0, rng.Float32(), randRange(rng, 0, 0.8)},
	}
}

// GridSeed lays n*n particles out on a 2-D parameter grid. The grid UV in
// [-1, 1) goes to Extra.xy; Color carries a phase and two random scalars.
func GridSeed(n int) SeedFunc[PixelParticle] {
	num := float32(n)
	return func(i int, rng *rand.Rand) PixelParticle {
		row, col := i/n, i%n
		dir := randomUnit(rng)

		return PixelParticle{
			Position: dir,
			Origin:   dir,
			Color:    [3]float32{rng.Float32() * math32.Pi * 2, rng.Float32(), rng.Float32()},
			Extra:    [3]float32{float32(row)/num*2 - 1, float32(col)/num*2 - 1, 0},
		}
	}
}

func randomUnit(rng *rand.Rand) [3]float32 {
	for {
		v := [3]float32{
			float32(rng.NormFloat64()),
			float32(rng.NormFloat64()),
			float32(rng.NormFloat64()),
		}
		l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		if l > 1e-6 {
			return [3]float32{v[0] / l, v[1] / l, v[2] / l}
		}
	}
}
