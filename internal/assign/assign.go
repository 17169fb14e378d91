// Package assign implements the engine's pluggable task-assignment
// strategy: a pure function from the current tasks and robots to a
// tick's worth of task-to-robot Assignments.
package assign

import "github.com/orangedot/taskbotsim/internal/core"

// Policy produces the authoritative task->robots mapping for one tick. A
// Policy is pure with respect to the engine: it must not mutate the task
// or robot state maps it is given, and must not retain references to them
// past the call. Expressed as a function type (rather than a
// single-method interface) so closures can satisfy it directly, following
// a strategy-as-closure idiom (internal/algo.Solver).
type Policy func(
	tasks []core.Task,
	robots []core.Robot,
	taskStates map[core.TaskID]core.TaskState,
	robotStates map[core.RobotID]core.RobotState,
) []core.Assignment

// Fixed returns a Policy that always returns the same assignment list,
// regardless of current state. Used by the tool-server to install a
// human- or external-planner-supplied override, and by Simulation.Fork to
// replay a hypothetical assignment.
func Fixed(assignments []core.Assignment) Policy {
	frozen := deepCopyAssignments(assignments)
	return func([]core.Task, []core.Robot, map[core.TaskID]core.TaskState, map[core.RobotID]core.RobotState) []core.Assignment {
		return deepCopyAssignments(frozen)
	}
}

func deepCopyAssignments(in []core.Assignment) []core.Assignment {
	out := make([]core.Assignment, len(in))
	for i, a := range in {
		robotIDs := make([]core.RobotID, len(a.RobotIDs))
		copy(robotIDs, a.RobotIDs)
		out[i] = core.Assignment{TaskID: a.TaskID, RobotIDs: robotIDs}
	}
	return out
}

// None is a Policy that never assigns anything.
func None(
	[]core.Task,
	[]core.Robot,
	map[core.TaskID]core.TaskState,
	map[core.RobotID]core.RobotState,
) []core.Assignment {
	return nil
}
