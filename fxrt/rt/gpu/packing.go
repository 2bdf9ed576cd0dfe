package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/swarm/fxrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	paramsSize  = 208
	frameSize   = 416
	previewSize = 16
)

// clipCorrection maps OpenGL clip depth [-w, w] onto the WebGPU range [0, w].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func putMat4(buf []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

func putFloat(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func putVec3Padded(buf []byte, v mgl32.Vec3) {
	putFloat(buf[0:], v[0])
	putFloat(buf[4:], v[1])
	putFloat(buf[8:], v[2])
	putFloat(buf[12:], 0)
}

// paramsBytes packs the compute Params struct:
// projection, view, model, time, offset, closing, count.
func paramsBytes(u *core.Uniforms) []byte {
	buf := make([]byte, paramsSize)
	putMat4(buf[0:], clipCorrection.Mul4(u.Projection))
	putMat4(buf[64:], u.View)
	putMat4(buf[128:], u.Model)
	putFloat(buf[192:], u.Time)
	putFloat(buf[196:], u.Offset)
	putFloat(buf[200:], u.Closing)
	binary.LittleEndian.PutUint32(buf[204:], u.Count)
	return buf
}

// frameBytes packs the points Frame struct. Projection and shadow matrices
// are corrected to WebGPU clip depth here, so core keeps GL conventions.
func frameBytes(u *core.PointUniforms) []byte {
	buf := make([]byte, frameSize)
	putMat4(buf[0:], u.Model)
	putMat4(buf[64:], u.View)
	putMat4(buf[128:], clipCorrection.Mul4(u.Projection))
	putMat4(buf[192:], u.Translate)
	putMat4(buf[256:], clipCorrection.Mul4(u.Shadow))
	putMat4(buf[320:], u.Touch)
	putVec3Padded(buf[384:], u.Light)
	putFloat(buf[400:], u.Viewport[0])
	putFloat(buf[404:], u.Viewport[1])
	putFloat(buf[408:], u.Offset)
	putFloat(buf[412:], u.Closing)
	return buf
}

func previewBytes(light mgl32.Vec3) []byte {
	buf := make([]byte, previewSize)
	putVec3Padded(buf, light)
	return buf
}
