package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/gekko3d/swarm"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	variant := flag.String("variant", "", "Particle variant: blackhole, pixelated or entrainment")
	particles := flag.Int("particles", 0, "Particle count (squared for grid variants)")
	headless := flag.Bool("headless", false, "Run the CPU backend without a window")
	frames := flag.Uint64("frames", 600, "Frames to run in headless mode")
	debug := flag.Bool("debug", false, "Enable debug logging and profiler stats")
	flag.Parse()

	if err := run(*configPath, *variant, *particles, *headless, *frames, *debug); err != nil {
		fmt.Fprintln(os.Stderr, "swarm:", err)
		os.Exit(1)
	}
}

func run(configPath, variant string, particles int, headless bool, frames uint64, debug bool) error {
	cfg := swarm.DefaultConfig()
	if configPath != "" {
		loaded, err := swarm.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if variant != "" {
		cfg.Variant = variant
	}
	if particles > 0 {
		cfg.NumParticles = particles
	}
	cfg.Debug = cfg.Debug || debug
	if err := cfg.Validate(); err != nil {
		return err
	}

	clock := swarm.TimeModule{}
	if headless {
		clock.FixedDt = frameDt
	}
	app := swarm.NewAppBuilder().
		UseStates(swarm.StateRunning, swarm.StateQuit).
		UseModule(
			swarm.LoggingModule{Prefix: "swarm", Debug: cfg.Debug},
			clock,
			swarm.SessionModule{Config: cfg},
			swarm.ParticlesModule{Config: cfg},
		).
		Build()

	if err := app.Err(); err != nil {
		return err
	}
	app.Logger().Infof("Variant %s, %d particles", cfg.Variant, cfg.ParticleCount())

	if headless {
		app.UseHeadless(swarm.HeadlessModule{
			MaxFrames:  frames,
			TriggerAt:  []uint64{frames / 4, frames / 2, 3 * frames / 4},
			StatsEvery: 60,
		})
	} else {
		app.UseWGPU(cfg)
	}
	if err := app.Err(); err != nil {
		return err
	}
	return app.Run()
}

const frameDt = time.Second / 60
