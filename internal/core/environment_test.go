package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentInBounds(t *testing.T) {
	env := NewEnvironment(5, 5, Discrete)
	assert.True(t, env.InBounds(NewCellPosition(0, 0)))
	assert.True(t, env.InBounds(NewCellPosition(4, 4)))
	assert.False(t, env.InBounds(NewCellPosition(5, 0)))
	assert.False(t, env.InBounds(NewCellPosition(-1, 0)))
}

func TestEnvironmentAddObstacleRejectsOutOfBounds(t *testing.T) {
	env := NewEnvironment(5, 5, Discrete)
	err := env.AddObstacle(NewCellPosition(10, 10))
	assert.Error(t, err)
}

func TestEnvironmentAddObstacleIdempotent(t *testing.T) {
	env := NewEnvironment(5, 5, Discrete)
	require.NoError(t, env.AddObstacle(NewCellPosition(2, 2)))
	require.NoError(t, env.AddObstacle(NewCellPosition(2, 2)))
	assert.True(t, env.IsObstacle(NewCellPosition(2, 2)))
	assert.Len(t, env.Obstacles(), 1)
}

func TestEnvironmentAddZoneOrderIndependent(t *testing.T) {
	zoneA := NewZone(1, ZoneCharging, []Cell{{X: 0, Y: 0}})
	zoneB := NewZone(2, ZoneLoading, []Cell{{X: 1, Y: 1}})

	envAB := NewEnvironment(5, 5, Discrete)
	require.NoError(t, envAB.AddZone(zoneA))
	require.NoError(t, envAB.AddZone(zoneB))

	envBA := NewEnvironment(5, 5, Discrete)
	require.NoError(t, envBA.AddZone(zoneB))
	require.NoError(t, envBA.AddZone(zoneA))

	assert.Equal(t, envAB.ZoneIDs(), envBA.ZoneIDs())
	for _, id := range envAB.ZoneIDs() {
		zAB, _ := envAB.GetZone(id)
		zBA, _ := envBA.GetZone(id)
		assert.Equal(t, zAB.Cells(), zBA.Cells())
	}
}

func TestEnvironmentAddZoneRejectsOverlap(t *testing.T) {
	env := NewEnvironment(5, 5, Discrete)
	require.NoError(t, env.AddZone(NewZone(1, ZoneCharging, []Cell{{X: 0, Y: 0}, {X: 1, Y: 0}})))

	err := env.AddZone(NewZone(2, ZoneLoading, []Cell{{X: 1, Y: 0}, {X: 2, Y: 0}}))
	assert.Error(t, err)

	// Atomicity: the rejected zone must not have partially registered.
	_, ok := env.GetZone(2)
	assert.False(t, ok)
}

func TestEnvironmentAddZoneRejectsDuplicateID(t *testing.T) {
	env := NewEnvironment(5, 5, Discrete)
	require.NoError(t, env.AddZone(NewZone(1, ZoneCharging, []Cell{{X: 0, Y: 0}})))
	err := env.AddZone(NewZone(1, ZoneLoading, []Cell{{X: 4, Y: 4}}))
	assert.Error(t, err)
}

func TestZoneNearestCellDeterministicTieBreak(t *testing.T) {
	z := NewZone(1, ZoneInspection, []Cell{{X: 2, Y: 0}, {X: 0, Y: 2}})
	// Both cells are Manhattan distance 2 from the origin; row-major order
	// picks (2,0) before (0,2).
	cell, ok := z.NearestCell(NewCellPosition(0, 0))
	require.True(t, ok)
	assert.Equal(t, Cell{X: 2, Y: 0}, cell)
}
