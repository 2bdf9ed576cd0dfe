package gpu

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/fxrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayoutFollowsRecord(t *testing.T) {
	layout, err := core.LayoutOf(core.BlackHoleParticle{})
	require.NoError(t, err)
	render, err := layout.Subset(core.BlackHoleRenderFields...)
	require.NoError(t, err)

	vbl, err := VertexLayout(render, wgpu.VertexStepModeInstance)
	require.NoError(t, err)

	assert.Equal(t, uint64(52), vbl.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, vbl.StepMode)
	require.Len(t, vbl.Attributes, 4)

	life := vbl.Attributes[3]
	assert.Equal(t, uint32(4), life.ShaderLocation)
	assert.Equal(t, uint64(48), life.Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32, life.Format)

	origin := vbl.Attributes[1]
	assert.Equal(t, uint32(2), origin.ShaderLocation)
	assert.Equal(t, uint64(24), origin.Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, origin.Format)
}

func TestVertexLayoutRejectsUnknownShapes(t *testing.T) {
	bad := core.Layout{
		Stride: 16,
		Attributes: []core.Attribute{
			{Name: "wide", Location: 0, Offset: 0, Components: 5, Type: core.ScalarFloat32},
		},
	}
	_, err := VertexLayout(bad, wgpu.VertexStepModeVertex)
	assert.Error(t, err)

	bad.Attributes[0] = core.Attribute{Name: "ints", Components: 1, Type: "int32"}
	_, err = VertexLayout(bad, wgpu.VertexStepModeVertex)
	assert.Error(t, err)
}

func TestPreludeOffsetsInWords(t *testing.T) {
	layout, err := core.LayoutOf(core.PixelParticle{})
	require.NoError(t, err)

	prelude := Prelude(layout)
	lines := strings.Split(strings.TrimSpace(prelude), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "const STRIDE: u32 = 15u;", lines[0])
	assert.Contains(t, prelude, "const POSITION: u32 = 0u;")
	assert.Contains(t, prelude, "const ORIGIN: u32 = 3u;")
	assert.Contains(t, prelude, "const VELOCITY: u32 = 6u;")
	assert.Contains(t, prelude, "const COLOR: u32 = 9u;")
	assert.Contains(t, prelude, "const EXTRA: u32 = 12u;")
}

func TestTextureBindingSkipsUniform(t *testing.T) {
	assert.Equal(t, uint32(1), TextureBinding(core.UnitShadow))
	assert.Equal(t, uint32(2), TextureBinding(core.UnitPreview))
	assert.Equal(t, uint32(3), TextureBinding(core.UnitEnvironment))
}
