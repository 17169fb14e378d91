package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangedot/taskbotsim/internal/core"
)

func TestGreedyAssignsFirstFeasibleRobot(t *testing.T) {
	robots := []core.Robot{
		{ID: 1, Capabilities: core.NewCapabilitySet(core.Vision)},
		{ID: 2, Capabilities: core.NewCapabilitySet(core.Vision, core.Repair)},
	}
	tasks := []core.Task{
		{ID: 10, RequiredCapabilities: core.NewCapabilitySet(core.Repair)},
	}

	out := Greedy(tasks, robots, nil, nil)
	require.Len(t, out, 1)
	assert.Equal(t, core.TaskID(10), out[0].TaskID)
	assert.Equal(t, []core.RobotID{2}, out[0].RobotIDs)
}

func TestGreedySkipsTaskWithNoFeasibleRobot(t *testing.T) {
	robots := []core.Robot{{ID: 1, Capabilities: core.NewCapabilitySet(core.Vision)}}
	tasks := []core.Task{
		{ID: 1, RequiredCapabilities: core.NewCapabilitySet(core.Repair)},
	}
	assert.Empty(t, Greedy(tasks, robots, nil, nil))
}

func TestGreedyDoesNotDoubleBookARobot(t *testing.T) {
	robots := []core.Robot{{ID: 1, Capabilities: core.NewCapabilitySet(core.Vision)}}
	tasks := []core.Task{
		{ID: 1, RequiredCapabilities: core.NewCapabilitySet(core.Vision)},
		{ID: 2, RequiredCapabilities: core.NewCapabilitySet(core.Vision)},
	}
	out := Greedy(tasks, robots, nil, nil)
	require.Len(t, out, 1)
	assert.Equal(t, core.TaskID(1), out[0].TaskID)
}

func TestFixedAlwaysReturnsSameAssignment(t *testing.T) {
	policy := Fixed([]core.Assignment{{TaskID: 1, RobotIDs: []core.RobotID{1}}})
	first := policy(nil, nil, nil, nil)
	second := policy(nil, nil, nil, nil)
	assert.Equal(t, first, second)

	// Mutating a returned slice must not affect subsequent calls.
	first[0].RobotIDs[0] = 99
	third := policy(nil, nil, nil, nil)
	assert.Equal(t, core.RobotID(1), third[0].RobotIDs[0])
}
