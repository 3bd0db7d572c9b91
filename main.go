package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/flip/config"
	"github.com/pthm-cable/flip/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	frames := flag.Int("frames", 300, "Number of frames to simulate")
	seed := flag.Uint64("seed", 0, "Particle seed (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output window and perf stats via slog")
	noPressure := flag.Bool("no-pressure", false, "Disable the pressure projection")
	debug := flag.Bool("debug", false, "Log every frame")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Particles.Seed = *seed
	}
	if *noPressure {
		cfg.Solver.Pressure = false
	}

	s, err := sim.New(cfg, sim.Options{
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to create simulator", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	slog.Info("starting simulation",
		"columns", cfg.Grid.Columns,
		"rows", cfg.Grid.Rows,
		"particles", s.ParticleCount(),
		"fluid_cells", s.FluidCells(),
		"pressure", s.PressureSolverEnabled(),
		"frames", *frames,
		"seed", cfg.Particles.Seed,
	)

	collapsed := 0
	for i := 0; i < *frames; i++ {
		if st := s.AdvanceFrame(); st.Collapsed {
			collapsed++
		}
	}

	slog.Info("simulation complete",
		"frames", s.Frame(),
		"sim_time", s.SimTime(),
		"fluid_cells", s.FluidCells(),
		"collapsed_frames", collapsed,
	)
}
