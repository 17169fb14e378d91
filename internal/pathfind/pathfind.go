// Package pathfind implements the engine's pluggable per-tick pathfinding
// strategy: given an environment, a robot's current position, a goal, and
// the set of cells occupied by other robots this tick, produce the single
// next step to move toward the goal.
package pathfind

import "github.com/orangedot/taskbotsim/internal/core"

// Policy computes the next step toward goal from start, treating obstacles
// and occupied as impassable. It returns ok=false if the goal is
// unreachable. Expressed as a function type, mirroring assign.Policy and the
// teacher codebase's strategy-as-closure idiom (internal/algo.Solver), so
// BFS, AStar, and test doubles can all be installed interchangeably.
type Policy func(
	environment *core.Environment,
	start core.Position,
	goal core.Position,
	occupied map[core.Cell]struct{},
) (core.Position, bool)

func cellOf(p core.Position) core.Cell {
	x, y := p.Cell()
	return core.Cell{X: x, Y: y}
}

func blocked(environment *core.Environment, occupied map[core.Cell]struct{}, c core.Cell) bool {
	if environment.IsObstacle(core.NewCellPosition(c.X, c.Y)) {
		return true
	}
	_, occ := occupied[c]
	return occ
}
