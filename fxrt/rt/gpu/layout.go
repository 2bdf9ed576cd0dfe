package gpu

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/fxrt/rt/core"
)

func vertexFormat(a core.Attribute) (wgpu.VertexFormat, error) {
	if a.Type != core.ScalarFloat32 {
		return 0, fmt.Errorf("unsupported scalar type %q for %s", a.Type, a.Name)
	}
	switch a.Components {
	case 1:
		return wgpu.VertexFormatFloat32, nil
	case 2:
		return wgpu.VertexFormatFloat32x2, nil
	case 3:
		return wgpu.VertexFormatFloat32x3, nil
	case 4:
		return wgpu.VertexFormatFloat32x4, nil
	default:
		return 0, fmt.Errorf("unsupported component count %d for %s", a.Components, a.Name)
	}
}

// VertexLayout turns a record layout into a vertex buffer layout. The particle
// buffer is read once per instance by the billboard programs.
func VertexLayout(layout core.Layout, stepMode wgpu.VertexStepMode) (wgpu.VertexBufferLayout, error) {
	attributes := make([]wgpu.VertexAttribute, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		format, err := vertexFormat(a)
		if err != nil {
			return wgpu.VertexBufferLayout{}, err
		}
		attributes = append(attributes, wgpu.VertexAttribute{
			ShaderLocation: a.Location,
			Offset:         a.Offset,
			Format:         format,
		})
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: layout.Stride,
		StepMode:    stepMode,
		Attributes:  attributes,
	}, nil
}

// Prelude declares the record stride and every field offset, in f32 words,
// as WGSL constants for the compute programs.
func Prelude(layout core.Layout) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "const STRIDE: u32 = %du;\n", layout.FloatStride())
	for _, a := range layout.Attributes {
		fmt.Fprintf(&sb, "const %s: u32 = %du;\n", strings.ToUpper(a.Name), a.FloatOffset())
	}
	return sb.String()
}

// TextureBinding maps a fixed texture unit to its binding in points_common.wgsl.
func TextureBinding(unit core.TextureUnit) uint32 {
	return uint32(unit) + 1
}
