package core

import (
	"github.com/chewxy/math32"
)

func hash3(x, y, z int32) float32 {
	h := uint32(x)*374761393 + uint32(y)*668265263 + uint32(z)*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float32(h&0xffffff) / float32(0x1000000)
}

func smoothstep01(t float32) float32 { return t * t * (3 - 2*t) }

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// ValueNoise is a trilinear lattice noise in [-1, 1].
func ValueNoise(x, y, z float32) float32 {
	fx, fy, fz := math32.Floor(x), math32.Floor(y), math32.Floor(z)
	ix, iy, iz := int32(fx), int32(fy), int32(fz)
	u, v, w := smoothstep01(x-fx), smoothstep01(y-fy), smoothstep01(z-fz)

	c000 := hash3(ix, iy, iz)
	c100 := hash3(ix+1, iy, iz)
	c010 := hash3(ix, iy+1, iz)
	c110 := hash3(ix+1, iy+1, iz)
	c001 := hash3(ix, iy, iz+1)
	c101 := hash3(ix+1, iy, iz+1)
	c011 := hash3(ix, iy+1, iz+1)
	c111 := hash3(ix+1, iy+1, iz+1)

	x00 := lerp(c000, c100, u)
	x10 := lerp(c010, c110, u)
	x01 := lerp(c001, c101, u)
	x11 := lerp(c011, c111, u)
	n := lerp(lerp(x00, x10, v), lerp(x01, x11, v), w)
	return n*2 - 1
}

// FBm sums four octaves of ValueNoise. The result stays inside (-0.9375, 0.9375).
func FBm(x, y, z float32) float32 {
	var sum float32
	amp, freq := float32(0.5), float32(1)
	for i := 0; i < 4; i++ {
		sum += amp * ValueNoise(x*freq, y*freq, z*freq)
		amp *= 0.5
		freq *= 2
	}
	return sum
}

// FBmBound is the largest magnitude FBm can return.
const FBmBound = 0.9375

// noiseVec samples three decorrelated ValueNoise channels for turbulence.
func noiseVec(x, y, z float32) [3]float32 {
	return [3]float32{
		ValueNoise(x, y, z),
		ValueNoise(x+31.416, y-17.13, z+4.7),
		ValueNoise(x-9.2, y+23.9, z-41.3),
	}
}
