package pathfind

import (
	"container/heap"
	"math"

	"github.com/orangedot/taskbotsim/internal/core"
)

// AStar is the Continuous-mode reference pathfinding policy. It searches
// the 8-connected grid with a container/heap priority queue and an
// Euclidean-distance heuristic, and inflates obstacles by their
// 4-connected neighbors so a robot's body radius cannot clip an obstacle's
// edge. It returns the first step of the shortest path from start to goal.
//
// The priority queue follows an astarHeap idiom
// (internal/algo/astar.go: a heap.Interface over nodes ordered by f-score).
// The search itself — 8-connectivity, Euclidean heuristic, obstacle
// inflation, (f, g, cell, firstStep) tuples — is grounded on
// original_source/pathfinding_algorithms/astar_pathfinding.py.
func AStar(
	environment *core.Environment,
	start core.Position,
	goal core.Position,
	occupied map[core.Cell]struct{},
) (core.Position, bool) {
	startCell := cellOf(start)
	goalCell := cellOf(goal)

	if startCell == goalCell {
		return goal, true
	}

	if environment.IsObstacle(core.NewCellPosition(startCell.X, startCell.Y)) {
		return core.Position{}, false
	}

	inflated := inflatedObstacles(environment, goalCell)
	isBlocked := func(c core.Cell) bool {
		if _, in := inflated[c]; in {
			return true
		}
		if environment.IsObstacle(core.NewCellPosition(c.X, c.Y)) {
			return true
		}
		_, occ := occupied[c]
		return occ
	}

	h := func(c core.Cell) float64 {
		dx := float64(c.X - goalCell.X)
		dy := float64(c.Y - goalCell.Y)
		return math.Sqrt(dx*dx + dy*dy)
	}

	open := &astarHeap{}
	heap.Init(open)
	gScore := map[core.Cell]float64{startCell: 0}
	firstStepOf := map[core.Cell]core.Cell{}

	for _, n := range neighbors8(startCell) {
		if !environment.CellInBounds(n.cell.X, n.cell.Y) || isBlocked(n.cell) {
			continue
		}
		if n.cell == goalCell {
			return core.NewCellPosition(n.cell.X, n.cell.Y), true
		}
		g := n.cost
		if existing, ok := gScore[n.cell]; !ok || g < existing {
			gScore[n.cell] = g
			firstStepOf[n.cell] = n.cell
		}
		heap.Push(open, &astarNode{cell: n.cell, g: g, f: g + h(n.cell), firstStep: n.cell})
	}

	visited := map[core.Cell]struct{}{startCell: {}}

	for open.Len() > 0 {
		current := heap.Pop(open).(*astarNode)
		if _, done := visited[current.cell]; done {
			continue
		}
		visited[current.cell] = struct{}{}

		if current.cell == goalCell {
			return core.NewCellPosition(current.firstStep.X, current.firstStep.Y), true
		}

		for _, n := range neighbors8(current.cell) {
			if _, done := visited[n.cell]; done {
				continue
			}
			if !environment.CellInBounds(n.cell.X, n.cell.Y) || isBlocked(n.cell) {
				continue
			}
			newG := current.g + n.cost
			if existing, ok := gScore[n.cell]; ok && newG >= existing {
				continue
			}
			gScore[n.cell] = newG
			firstStepOf[n.cell] = current.firstStep
			heap.Push(open, &astarNode{cell: n.cell, g: newG, f: newG + h(n.cell), firstStep: current.firstStep})
		}
	}

	return core.Position{}, false
}

// inflatedObstacles returns the 4-connected neighbors of every obstacle
// cell, excluding the goal cell itself (the goal must always stay
// reachable even if it sits adjacent to an obstacle).
func inflatedObstacles(environment *core.Environment, goalCell core.Cell) map[core.Cell]struct{} {
	obstacles := environment.Obstacles()
	inflated := make(map[core.Cell]struct{})
	for o := range obstacles {
		for _, n := range neighbors4(o) {
			if _, isObstacle := obstacles[n]; isObstacle {
				continue
			}
			if n == goalCell {
				continue
			}
			inflated[n] = struct{}{}
		}
	}
	return inflated
}

type neighborStep struct {
	cell core.Cell
	cost float64
}

var sqrt2 = math.Sqrt2

func neighbors8(c core.Cell) []neighborStep {
	return []neighborStep{
		{core.Cell{X: c.X + 1, Y: c.Y}, 1},
		{core.Cell{X: c.X - 1, Y: c.Y}, 1},
		{core.Cell{X: c.X, Y: c.Y + 1}, 1},
		{core.Cell{X: c.X, Y: c.Y - 1}, 1},
		{core.Cell{X: c.X + 1, Y: c.Y + 1}, sqrt2},
		{core.Cell{X: c.X + 1, Y: c.Y - 1}, sqrt2},
		{core.Cell{X: c.X - 1, Y: c.Y + 1}, sqrt2},
		{core.Cell{X: c.X - 1, Y: c.Y - 1}, sqrt2},
	}
}

// astarNode is a priority-queue entry ordered by f-score, mirroring the
// astarNode/astarHeap pair.
type astarNode struct {
	cell      core.Cell
	g, f      float64
	firstStep core.Cell
	index     int
}

type astarHeap []*astarNode

func (h astarHeap) Len() int            { return len(h) }
func (h astarHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h astarHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *astarHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *astarHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}
