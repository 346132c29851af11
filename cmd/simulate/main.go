package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/survival-core/internal/simlog"
	"github.com/opd-ai/survival-core/pkg/agent"
	"github.com/opd-ai/survival-core/pkg/simcore"
	"github.com/opd-ai/survival-core/pkg/worldmap"
)

func main() {
	duration := flag.Float64("duration", 60.0, "Simulated seconds to run")
	seed := flag.Int64("seed", time.Now().UnixNano(), "World PRNG seed")
	dayDuration := flag.Float64("day-duration", 20.0, "Seconds per in-sim day, controlling wave frequency")
	zombiesPerDay := flag.Int("zombies-per-day", 3, "Pursuers spawned at each day rollover")
	followers := flag.Int("followers", 1, "Followers to spawn at startup")
	mapSize := flag.Int("map-cells", 80, "Open square map side length in cells")
	verbose := flag.Bool("verbose", false, "Print the day/night state once per simulated second and enable debug logging")
	flag.Parse()

	logger := simlog.NewFromEnv()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	log := simlog.ComponentLogger(logger, "simulate")

	log.WithFields(logrus.Fields{
		"duration":      *duration,
		"seed":          *seed,
		"dayDuration":   *dayDuration,
		"zombiesPerDay": *zombiesPerDay,
		"followers":     *followers,
	}).Info("headless simulation starting")

	matrix := make([][]int, *mapSize)
	for r := range matrix {
		matrix[r] = make([]int, *mapSize)
	}
	m, err := worldmap.Compile(matrix, 10, nil)
	if err != nil {
		log.WithError(err).Fatal("map compile failed")
	}

	cfg := simcore.DefaultConfig()
	center := float64(*mapSize) * 10 / 2
	cfg.PlayerSpawn = agent.Vec2{X: center, Y: center}
	cfg.DayDuration = *dayDuration
	cfg.ZombiesPerDay = *zombiesPerDay

	w, err := simcore.New(m, *seed, cfg)
	if err != nil {
		log.WithError(err).Fatal("world creation failed")
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *followers; i++ {
		angle := rng.Float64() * 2 * math.Pi
		pos := agent.Vec2{X: center + 20*math.Cos(angle), Y: center + 20*math.Sin(angle)}
		w.SpawnFollower(agent.FollowerCompanion, pos)
	}
	log.WithField("count", *followers).Info("followers spawned")

	const targetFPS = 60
	const dt = 1.0 / targetFPS
	steps := int(*duration / dt)

	fmt.Printf("=== Survival Core Headless Simulation ===\n")
	fmt.Printf("seed=%d duration=%.1fs steps=%d\n\n", *seed, *duration, steps)

	start := time.Now()
	lastDay := 1
	for step := 0; step < steps; step++ {
		angle := float64(step) * 0.01
		input := agent.Input{MoveX: math.Cos(angle), MoveY: math.Sin(angle)}
		w.Tick(dt, input)

		view := w.Snapshot()
		if view.Day != lastDay {
			lastDay = view.Day
			log.WithFields(logrus.Fields{
				"day":   view.Day,
				"tick":  view.TickCount,
				"alive": len(view.Agents),
			}).Info("day rollover")
		}
		if *verbose && step%targetFPS == 0 {
			fmt.Printf("t=%.1fs day=%d is_day=%v agents=%d\n",
				float64(step)*dt, view.Day, view.IsDay, len(view.Agents))
		}
	}
	elapsed := time.Since(start)

	final := w.Snapshot()
	fmt.Printf("\n=== Simulation Complete ===\n")
	fmt.Printf("simulated %.1fs in %v (%.1fx real-time)\n", *duration, elapsed, *duration/elapsed.Seconds())
	fmt.Printf("final day=%d agents=%d\n", final.Day, len(final.Agents))
	for _, a := range final.Agents {
		fmt.Printf("  #%d %-8s hp=%.0f/%.0f pos=(%.1f,%.1f) state=%d\n",
			a.ID, a.Kind, a.HP, a.MaxHP, a.X, a.Y, a.State)
	}

	log.WithFields(logrus.Fields{
		"elapsed": elapsed.String(),
		"day":     final.Day,
		"agents":  len(final.Agents),
	}).Info("simulation completed")
}
