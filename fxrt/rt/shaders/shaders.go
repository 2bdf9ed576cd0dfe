package shaders

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
)

//go:embed noise.wgsl
var NoiseWGSL string

//go:embed feedback_common.wgsl
var FeedbackCommonWGSL string

//go:embed blackhole_update.wgsl
var BlackHoleUpdateWGSL string

//go:embed pixel_update.wgsl
var PixelUpdateWGSL string

//go:embed pixel_init.wgsl
var PixelInitWGSL string

//go:embed entrainment_update.wgsl
var EntrainmentUpdateWGSL string

//go:embed points_common.wgsl
var PointsCommonWGSL string

//go:embed points_blackhole.wgsl
var PointsBlackHoleWGSL string

//go:embed points_pixel.wgsl
var PointsPixelWGSL string

//go:embed points_entrainment.wgsl
var PointsEntrainmentWGSL string

//go:embed blit.wgsl
var BlitWGSL string

//go:embed preview.wgsl
var PreviewWGSL string

var ErrUnknownProgram = errors.New("unknown program")

// Program is the named set of sources for one particle variant. Update and Init
// still need the layout prelude prepended before compilation. Init may be empty.
type Program struct {
	Name   string
	Update string
	Init   string
	Render string
}

func feedback(body string) string { return FeedbackCommonWGSL + "\n" + NoiseWGSL + "\n" + body }
func points(body string) string   { return PointsCommonWGSL + "\n" + body }

var programs = map[string]Program{
	"blackhole": {
		Name:   "blackhole",
		Update: feedback(BlackHoleUpdateWGSL),
		Render: points(PointsBlackHoleWGSL),
	},
	"pixelated": {
		Name:   "pixelated",
		Update: feedback(PixelUpdateWGSL),
		Init:   feedback(PixelInitWGSL),
		Render: points(PointsPixelWGSL),
	},
	"entrainment": {
		Name:   "entrainment",
		Update: feedback(EntrainmentUpdateWGSL),
		Render: points(PointsEntrainmentWGSL),
	},
}

// Lookup resolves a variant name to its programs.
func Lookup(name string) (Program, error) {
	p, ok := programs[name]
	if !ok {
		return Program{}, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
