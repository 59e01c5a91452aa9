// Command gridsim runs the regional grid simulation: thermoelectric
// plants wear down, circuits demand power, and the BDI agents decide
// who gets cut when capacity falls short.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/powergrid/internal/agents"
	"github.com/talgya/powergrid/internal/config"
	"github.com/talgya/powergrid/internal/engine"
	"github.com/talgya/powergrid/internal/fuzzy"
	"github.com/talgya/powergrid/internal/grid"
	"github.com/talgya/powergrid/internal/metrics"
	"github.com/talgya/powergrid/internal/mood"
	"github.com/talgya/powergrid/internal/optimizer"
	"github.com/talgya/powergrid/internal/parts"
	"github.com/talgya/powergrid/internal/persistence"
	"github.com/talgya/powergrid/internal/scenario"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.DefaultConfig()
	applyEnv(&cfg)

	// A broken configuration never reaches the first timestep.
	if err := cfg.Validate(); err != nil {
		slog.Error("configuration rejected", "error", err)
		os.Exit(1)
	}

	slog.Info("powergrid simulation",
		"seed", cfg.Seed,
		"steps", cfg.Steps,
		"low_watermark", cfg.HealthLowWatermark,
	)

	// ── Topology ──────────────────────────────────────────────────────
	topo, err := demoTopology()
	if err != nil {
		slog.Error("topology rejected", "error", err)
		os.Exit(1)
	}
	slog.Info("topology loaded",
		"plants", len(topo.Plants),
		"circuits", len(topo.Circuits),
		"links", len(topo.Links),
	)

	// ── Core systems ─────────────────────────────────────────────────
	eval, err := fuzzy.NewEvaluator(cfg.Fuzzy)
	if err != nil {
		slog.Error("fuzzy evaluator rejected", "error", err)
		os.Exit(1)
	}
	cfg.Optimizer.Seed = cfg.Seed
	opt, err := optimizer.New(cfg.Optimizer, eval)
	if err != nil {
		slog.Error("optimizer rejected", "error", err)
		os.Exit(1)
	}

	units := make([]*engine.PlantUnit, len(topo.Plants))
	for i, p := range topo.Plants {
		units[i] = &engine.PlantUnit{
			Plant: p,
			Model: parts.NewModel(cfg.Seed+int64(i)*101, 4),
			Agent: agents.NewPlantAgent(p.ID, cfg.HealthLowWatermark),
		}
	}

	base := make(map[grid.CircuitID]float64, len(topo.Circuits))
	for _, c := range topo.Circuits {
		base[c.ID] = c.Demand
	}
	demand := scenario.NewGenerator(cfg.Seed, base)

	sim := engine.NewSimulation(
		topo,
		units,
		agents.NewChiefAgent(opt),
		mood.NewTracker(cfg.Mood),
		demand,
		opt,
		cfg.Seed,
	)
	sim.Observe = func(d agents.Decision, snap *grid.Snapshot) {
		metrics.ObserveDecision(d)
		metrics.ObserveGrid(snap)
	}

	// ── Decision log ─────────────────────────────────────────────────
	if cfg.DBPath != "" {
		os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
		db, err := persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open decision log", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		sim.Sink = db
		slog.Info("decision log opened", "path", cfg.DBPath)
	}

	// ── Metrics endpoint ─────────────────────────────────────────────
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			addr := fmt.Sprintf(":%d", cfg.MetricsPort)
			if err := http.ListenAndServe(addr, nil); err != nil {
				slog.Error("metrics endpoint failed", "error", err)
			}
		}()
		slog.Info("metrics endpoint up", "port", cfg.MetricsPort)
	}

	// ── Clock ────────────────────────────────────────────────────────
	clock := engine.NewClock()
	clock.MaxSteps = cfg.Steps
	clock.OnStep = sim.Step
	clock.OnDay = sim.DayReport

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		clock.Stop()
	}()

	fmt.Printf("powergrid: %d plants serving %d circuits. (Ctrl+C to stop)\n",
		len(topo.Plants), len(topo.Circuits))

	clock.Run()

	slog.Info("final state",
		"step", sim.LastStep,
		"time", engine.SimTime(sim.LastStep),
		"recent_outages", len(sim.History),
	)
	fmt.Println("Simulation stopped.")
}

// applyEnv overrides the defaults from the environment; full
// configuration loading belongs to outer tooling.
func applyEnv(cfg *config.Config) {
	if v := os.Getenv("POWERGRID_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v := os.Getenv("POWERGRID_STEPS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Steps = n
		}
	}
	if v := os.Getenv("POWERGRID_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("POWERGRID_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MetricsPort = n
		}
	}
}

// demoTopology wires a small reference region: three plants, six
// circuits, with link capacities that leave a little slack. Real
// deployments feed a generated topology in instead.
func demoTopology() (*grid.Topology, error) {
	plants := []*grid.Plant{
		{ID: "pl-antonio", Name: "Antonio Guiteras", NominalCapacity: 300, Output: 300, Health: 1},
		{ID: "pl-felton", Name: "Lidio Ramon Perez", NominalCapacity: 250, Output: 250, Health: 1},
		{ID: "pl-rente", Name: "Antonio Maceo", NominalCapacity: 180, Output: 180, Health: 1},
	}
	circuits := []*grid.Circuit{
		{ID: "ci-norte", Name: "Norte", Demand: 120, Mood: 1},
		{ID: "ci-sur", Name: "Sur", Demand: 95, Mood: 1},
		{ID: "ci-este", Name: "Este", Demand: 110, Mood: 1},
		{ID: "ci-oeste", Name: "Oeste", Demand: 80, Mood: 1},
		{ID: "ci-centro", Name: "Centro", Demand: 140, Mood: 1},
		{ID: "ci-litoral", Name: "Litoral", Demand: 70, Mood: 1},
	}
	var links []grid.TransmissionLink
	for i, c := range circuits {
		p := plants[i%len(plants)]
		links = append(links, grid.TransmissionLink{
			ID:       grid.LinkID(fmt.Sprintf("ln-%s", c.ID)),
			Plant:    p.ID,
			Circuit:  c.ID,
			Capacity: c.Demand * 1.5,
		})
	}
	return grid.NewTopology(plants, circuits, links)
}
