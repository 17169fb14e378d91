package pathfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangedot/taskbotsim/internal/core"
)

func TestBFSStartEqualsGoalReturnsStart(t *testing.T) {
	env := core.NewEnvironment(5, 5, core.Discrete)
	start := core.NewCellPosition(2, 2)
	next, ok := BFS(env, start, start, nil)
	require.True(t, ok)
	assert.Equal(t, start, next)
}

func TestBFSStepsTowardAdjacentGoal(t *testing.T) {
	env := core.NewEnvironment(5, 5, core.Discrete)
	start := core.NewCellPosition(0, 0)
	goal := core.NewCellPosition(1, 0)
	next, ok := BFS(env, start, goal, nil)
	require.True(t, ok)
	assert.Equal(t, goal, next)
}

func TestBFSRoutesAroundObstacle(t *testing.T) {
	env := core.NewEnvironment(3, 3, core.Discrete)
	require.NoError(t, env.AddObstacle(core.NewCellPosition(1, 0)))
	start := core.NewCellPosition(0, 0)
	goal := core.NewCellPosition(2, 0)

	next, ok := BFS(env, start, goal, nil)
	require.True(t, ok)
	assert.NotEqual(t, core.NewCellPosition(1, 0), next)
}

func TestBFSFullySurroundedReturnsNotFound(t *testing.T) {
	env := core.NewEnvironment(3, 3, core.Discrete)
	start := core.NewCellPosition(1, 1)
	goal := core.NewCellPosition(0, 0)
	occupied := map[core.Cell]struct{}{
		{X: 1, Y: 0}: {},
		{X: 1, Y: 2}: {},
		{X: 0, Y: 1}: {},
		{X: 2, Y: 1}: {},
	}
	_, ok := BFS(env, start, goal, occupied)
	assert.False(t, ok)
}

func TestAStarStartEqualsGoalReturnsGoal(t *testing.T) {
	env := core.NewEnvironment(5, 5, core.Continuous)
	start := core.Position{X: 2, Y: 2}
	next, ok := AStar(env, start, start, nil)
	require.True(t, ok)
	assert.Equal(t, start, next)
}

func TestAStarTakesDiagonalStepWhenShorter(t *testing.T) {
	env := core.NewEnvironment(5, 5, core.Continuous)
	start := core.NewCellPosition(0, 0)
	goal := core.NewCellPosition(3, 3)
	next, ok := AStar(env, start, goal, nil)
	require.True(t, ok)
	assert.Equal(t, core.NewCellPosition(1, 1), next)
}

func TestAStarInflatesObstacleNeighbors(t *testing.T) {
	env := core.NewEnvironment(5, 5, core.Continuous)
	require.NoError(t, env.AddObstacle(core.NewCellPosition(2, 2)))
	start := core.NewCellPosition(1, 2)
	goal := core.NewCellPosition(3, 2)

	next, ok := AStar(env, start, goal, nil)
	require.True(t, ok)
	assert.NotEqual(t, core.NewCellPosition(2, 2), next)
	assert.NotEqual(t, core.NewCellPosition(2, 1), next)
	assert.NotEqual(t, core.NewCellPosition(2, 3), next)
}

func TestAStarGoalAdjacentToObstacleStaysReachable(t *testing.T) {
	env := core.NewEnvironment(5, 5, core.Continuous)
	require.NoError(t, env.AddObstacle(core.NewCellPosition(2, 2)))
	start := core.NewCellPosition(0, 2)
	goal := core.NewCellPosition(2, 1)

	_, ok := AStar(env, start, goal, nil)
	assert.True(t, ok)
}

func TestAStarUnreachableGoalReturnsNotFound(t *testing.T) {
	env := core.NewEnvironment(3, 3, core.Continuous)
	start := core.NewCellPosition(1, 1)
	goal := core.NewCellPosition(0, 0)
	occupied := map[core.Cell]struct{}{
		{X: 1, Y: 0}: {}, {X: 1, Y: 2}: {}, {X: 0, Y: 1}: {}, {X: 2, Y: 1}: {},
		{X: 0, Y: 0}: {}, {X: 2, Y: 0}: {}, {X: 0, Y: 2}: {}, {X: 2, Y: 2}: {},
	}
	_, ok := AStar(env, start, goal, occupied)
	assert.False(t, ok)
}
