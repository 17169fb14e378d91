package engine

import (
	"github.com/rs/zerolog"

	"github.com/orangedot/taskbotsim/internal/assign"
	"github.com/orangedot/taskbotsim/internal/core"
	"github.com/orangedot/taskbotsim/internal/pathfind"
)

// Option configures a Simulation at construction time, following the
// functional-options idiom for optional configuration. The CLI and the
// tool-server pass these options to New.
type Option func(*Simulation)

// WithAssignPolicy binds the assignment strategy.
func WithAssignPolicy(p assign.Policy) Option {
	return func(s *Simulation) { s.assignPolicy = p }
}

// WithPathPolicy binds the pathfinding strategy.
func WithPathPolicy(p pathfind.Policy) Option {
	return func(s *Simulation) { s.pathPolicy = p }
}

// WithDT overrides the per-tick time step (default: one tick).
func WithDT(dt core.Time) Option {
	return func(s *Simulation) { s.dt = dt }
}

// WithLogger overrides the logger used to report dropped strategy-contract
// violations. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulation) { s.logger = logger }
}
