package swarm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/gekko3d/swarm/fxrt/rt/core"
	"github.com/gekko3d/swarm/fxrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("invalid config")

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// Config is built once at startup and passed by value afterwards.
type Config struct {
	Variant          string  `toml:"variant"`
	NumParticles     int     `toml:"num_particles"`
	SquareCount      bool    `toml:"square_count"`
	ShadowMapSize    int     `toml:"shadow_map_size"`
	EnvMapSize       int     `toml:"env_map_size"`
	PreviewSize      int     `toml:"preview_size"`
	Easing           float32 `toml:"easing"`
	RampStep         float32 `toml:"ramp_step"`
	TriggerThreshold int     `toml:"trigger_threshold"`
	// ModelScale shrinks the black hole and entrainment particle space into
	// anchor space. The pixelated disk is authored at world size.
	ModelScale    float32      `toml:"model_scale"`
	AnchorOffset  [3]float32   `toml:"anchor_offset"`
	LightPosition [3]float32   `toml:"light_position"`
	LightFov      float32      `toml:"light_fov"`
	LightNear     float32      `toml:"light_near"`
	LightFar      float32      `toml:"light_far"`
	Seed          int64        `toml:"seed"`
	CameraImage   string       `toml:"camera_image"`
	Window        WindowConfig `toml:"window"`
	Debug         bool         `toml:"debug"`
}

func DefaultConfig() Config {
	light := core.DefaultLightCamera()
	return Config{
		Variant:          "blackhole",
		NumParticles:     80,
		SquareCount:      false,
		ShadowMapSize:    2048,
		EnvMapSize:       2048,
		PreviewSize:      64,
		Easing:           0.025,
		RampStep:         0.005,
		TriggerThreshold: 2,
		ModelScale:       0.1,
		AnchorOffset:     [3]float32{0, 0, -2},
		LightPosition:    light.Position,
		LightFov:         light.FovY,
		LightNear:        light.Near,
		LightFar:         light.Far,
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "swarm",
		},
	}
}

// LoadConfig decodes a TOML file over DefaultConfig. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if !slices.Contains(shaders.Names(), c.Variant) {
		return invalid("unknown variant %q (want one of %v)", c.Variant, shaders.Names())
	}
	if c.NumParticles <= 0 {
		return invalid("num_particles must be positive, got %d", c.NumParticles)
	}
	for name, size := range map[string]int{
		"shadow_map_size": c.ShadowMapSize,
		"env_map_size":    c.EnvMapSize,
		"preview_size":    c.PreviewSize,
	} {
		if size <= 0 {
			return invalid("%s must be positive, got %d", name, size)
		}
	}
	if c.Easing <= 0 || c.Easing > 1 {
		return invalid("easing must be in (0, 1], got %v", c.Easing)
	}
	if c.RampStep <= 0 {
		return invalid("ramp_step must be positive, got %v", c.RampStep)
	}
	if c.TriggerThreshold < 1 {
		return invalid("trigger_threshold must be at least 1, got %d", c.TriggerThreshold)
	}
	if c.ModelScale <= 0 {
		return invalid("model_scale must be positive, got %v", c.ModelScale)
	}
	if c.LightNear <= 0 || c.LightFar <= c.LightNear {
		return invalid("light range [%v, %v] is empty", c.LightNear, c.LightFar)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// ParticleCount is the number of records in each buffer. The entrainment
// variant lays particles on a square grid and always squares the count.
func (c Config) ParticleCount() int {
	if c.SquareCount || c.Variant == "entrainment" {
		return c.NumParticles * c.NumParticles
	}
	return c.NumParticles
}

func (c Config) LightCamera() core.LightCamera {
	return core.LightCamera{
		Position: c.LightPosition,
		FovY:     c.LightFov,
		Near:     c.LightNear,
		Far:      c.LightFar,
		Aspect:   1,
	}
}

func (c Config) Offset() mgl32.Vec3 { return mgl32.Vec3(c.AnchorOffset) }

// VariantModelScale is the particle to anchor space scale for the configured
// variant.
func (c Config) VariantModelScale() float32 {
	if c.Variant == "pixelated" {
		return 1
	}
	return c.ModelScale
}
