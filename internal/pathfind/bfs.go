package pathfind

import "github.com/orangedot/taskbotsim/internal/core"

// BFS is the Discrete-mode reference pathfinding policy. It searches the
// 4-connected grid breadth-first and returns the first step of the
// shortest path from start to goal, treating obstacles and occupied cells
// as impassable.
//
// Grounded on
// original_source/pathfinding_algorithms/bfs_pathfinding.py's
// bfs_pathfind: same neighbor order, same start==goal short-circuit, same
// "blocked means obstacle or occupied" rule.
func BFS(
	environment *core.Environment,
	start core.Position,
	goal core.Position,
	occupied map[core.Cell]struct{},
) (core.Position, bool) {
	startCell := cellOf(start)
	goalCell := cellOf(goal)

	if startCell == goalCell {
		return start, true
	}

	type queued struct {
		cell      core.Cell
		firstStep core.Cell
	}

	visited := map[core.Cell]struct{}{startCell: {}}
	queue := make([]queued, 0, 16)

	for _, n := range neighbors4(startCell) {
		if !environment.CellInBounds(n.X, n.Y) {
			continue
		}
		if blocked(environment, occupied, n) {
			continue
		}
		if n == goalCell {
			return core.NewCellPosition(n.X, n.Y), true
		}
		visited[n] = struct{}{}
		queue = append(queue, queued{cell: n, firstStep: n})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, n := range neighbors4(current.cell) {
			if _, seen := visited[n]; seen {
				continue
			}
			if !environment.CellInBounds(n.X, n.Y) {
				continue
			}
			if blocked(environment, occupied, n) {
				continue
			}
			if n == goalCell {
				return core.NewCellPosition(current.firstStep.X, current.firstStep.Y), true
			}
			visited[n] = struct{}{}
			queue = append(queue, queued{cell: n, firstStep: current.firstStep})
		}
	}

	return core.Position{}, false
}

func neighbors4(c core.Cell) []core.Cell {
	return []core.Cell{
		{X: c.X, Y: c.Y - 1},
		{X: c.X, Y: c.Y + 1},
		{X: c.X - 1, Y: c.Y},
		{X: c.X + 1, Y: c.Y},
	}
}
