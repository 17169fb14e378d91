package engine

import "github.com/orangedot/taskbotsim/internal/core"

// Snapshot is a deep-copied, structurally immutable point-in-time view of a
// Simulation. Environment, Robots, and Tasks are shared by reference (they
// are already immutable after construction); the two state maps are
// independent deep copies, so mutating the live Simulation after a snapshot
// is taken never affects it.
type Snapshot struct {
	TNow        core.Time
	Environment *core.Environment
	Robots      []core.Robot
	Tasks       []core.Task
	RobotStates map[core.RobotID]core.RobotState
	TaskStates  map[core.TaskID]core.TaskState
}

func newSnapshot(
	tNow core.Time,
	environment *core.Environment,
	robots []core.Robot,
	tasks []core.Task,
	robotStates map[core.RobotID]core.RobotState,
	taskStates map[core.TaskID]core.TaskState,
) Snapshot {
	return Snapshot{
		TNow:        tNow,
		Environment: environment,
		Robots:      robots,
		Tasks:       tasks,
		RobotStates: cloneRobotStates(robotStates),
		TaskStates:  cloneTaskStates(taskStates),
	}
}

func cloneRobotStates(in map[core.RobotID]core.RobotState) map[core.RobotID]core.RobotState {
	out := make(map[core.RobotID]core.RobotState, len(in))
	for id, st := range in {
		out[id] = st.Clone()
	}
	return out
}

func cloneTaskStates(in map[core.TaskID]core.TaskState) map[core.TaskID]core.TaskState {
	out := make(map[core.TaskID]core.TaskState, len(in))
	for id, st := range in {
		out[id] = st.Clone()
	}
	return out
}

// Result is the outcome of running a Simulation to completion or to a step
// budget: whether every task reached a terminal state, how many succeeded,
// and (when completed) the tick count it took.
type Result struct {
	Completed      bool
	TasksSucceeded int
	TasksTotal     int
	Makespan       *core.Time
	Snapshots      []Snapshot
}
