// Command simrunner loads a scenario file, runs it to completion or to a
// step budget, and reports the outcome.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/orangedot/taskbotsim/internal/assign"
	"github.com/orangedot/taskbotsim/internal/core"
	"github.com/orangedot/taskbotsim/internal/engine"
	"github.com/orangedot/taskbotsim/internal/loader"
	"github.com/orangedot/taskbotsim/internal/pathfind"
)

var (
	maxSteps int
	jsonLogs bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "simrunner",
	Short: "Run a robot task-allocation scenario",
}

var runCmd = &cobra.Command{
	Use:   "run <scenario.json>",
	Short: "Run a scenario to completion or to a step budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 200, "maximum number of ticks to run")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of a console-pretty writer")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(runCmd)
}

func setupLogger() {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if jsonLogs {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func runScenario(cmd *cobra.Command, args []string) error {
	setupLogger()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("simrunner: reading scenario: %w", err)
	}

	loaded, err := loader.Load(data)
	if err != nil {
		log.Error().Err(err).Str("scenario", path).Msg("scenario failed to load")
		return err
	}
	log.Info().
		Str("run_id", loaded.RunID).
		Int("robots", len(loaded.Robots)).
		Int("tasks", len(loaded.Tasks)).
		Msg("scenario loaded")

	pathPolicy := pathfind.Policy(pathfind.BFS)
	if loaded.Environment.Mode() == core.Continuous {
		pathPolicy = pathfind.AStar
	}

	sim, err := engine.New(
		loaded.Environment, loaded.Robots, loaded.Tasks, loaded.RobotStates, loaded.TaskStates,
		engine.WithAssignPolicy(assign.Greedy),
		engine.WithPathPolicy(pathPolicy),
		engine.WithLogger(log.Logger),
	)
	if err != nil {
		return fmt.Errorf("simrunner: starting simulation: %w", err)
	}

	start := time.Now()
	result, err := sim.Run(maxSteps)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("simrunner: running simulation: %w", err)
	}

	report(result, elapsed)
	if !result.Completed {
		os.Exit(1)
	}
	return nil
}

func report(result engine.Result, elapsed time.Duration) {
	status := color.GreenString("PASS")
	if !result.Completed {
		status = color.RedString("FAIL")
	}

	makespan := "n/a"
	if result.Makespan != nil {
		makespan = fmt.Sprintf("%d", result.Makespan.Tick)
	}

	fmt.Printf("%s  tasks %d/%d succeeded, makespan=%s, wall=%s\n",
		status, result.TasksSucceeded, result.TasksTotal, makespan, elapsed)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(color.RedString("Fatal: %s", err.Error()))
		os.Exit(1)
	}
}
