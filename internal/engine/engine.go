// Package engine implements the tick-level simulation loop: it consults
// the assignment and pathfinding strategies, plans collision-free moves
// under a two-phase plan/execute discipline, drives movement, work, and
// task lifecycle transitions, and records an immutable snapshot of every
// tick.
package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/orangedot/taskbotsim/internal/assign"
	"github.com/orangedot/taskbotsim/internal/core"
	"github.com/orangedot/taskbotsim/internal/pathfind"
)

// Simulation owns all mutable state for one run: the environment, the
// ordered robot and task lists, their per-run state maps, the bound
// strategies, the clock, and the full tick history. Robots and Tasks are
// shared-readable and never mutated after construction; RobotStates and
// TaskStates are exclusively owned and mutated only from inside Step.
type Simulation struct {
	environment *core.Environment
	robots      []core.Robot
	tasks       []core.Task
	robotStates map[core.RobotID]core.RobotState
	taskStates  map[core.TaskID]core.TaskState

	robotIndex    map[core.RobotID]int
	taskIndex     map[core.TaskID]int
	sortedRobotID []core.RobotID

	assignPolicy assign.Policy
	pathPolicy   pathfind.Policy
	dt           core.Time
	tNow         core.Time

	lastAssignments []core.Assignment
	history         []Snapshot

	logger zerolog.Logger
}

// New constructs a Simulation starting at t=0 and records the initial
// snapshot before any tick runs. robotStates and taskStates must carry an
// entry for every robot and task respectively.
func New(
	environment *core.Environment,
	robots []core.Robot,
	tasks []core.Task,
	robotStates map[core.RobotID]core.RobotState,
	taskStates map[core.TaskID]core.TaskState,
	opts ...Option,
) (*Simulation, error) {
	return newSimulation(environment, robots, tasks, robotStates, taskStates, core.Time{}, opts...)
}

func newSimulation(
	environment *core.Environment,
	robots []core.Robot,
	tasks []core.Task,
	robotStates map[core.RobotID]core.RobotState,
	taskStates map[core.TaskID]core.TaskState,
	startAt core.Time,
	opts ...Option,
) (*Simulation, error) {
	if environment == nil {
		return nil, ErrNilEnvironment
	}
	for _, r := range robots {
		if _, ok := robotStates[r.ID]; !ok {
			return nil, fmt.Errorf("%w: robot %d", ErrMissingRobotState, r.ID)
		}
	}
	for _, t := range tasks {
		if _, ok := taskStates[t.ID]; !ok {
			return nil, fmt.Errorf("%w: task %d", ErrMissingTaskState, t.ID)
		}
	}

	robotIndex := make(map[core.RobotID]int, len(robots))
	sortedRobotID := make([]core.RobotID, 0, len(robots))
	for i, r := range robots {
		robotIndex[r.ID] = i
		sortedRobotID = append(sortedRobotID, r.ID)
	}
	sort.Slice(sortedRobotID, func(i, j int) bool { return sortedRobotID[i] < sortedRobotID[j] })

	taskIndex := make(map[core.TaskID]int, len(tasks))
	for i, t := range tasks {
		taskIndex[t.ID] = i
	}

	sim := &Simulation{
		environment:   environment,
		robots:        append([]core.Robot(nil), robots...),
		tasks:         append([]core.Task(nil), tasks...),
		robotStates:   cloneRobotStates(robotStates),
		taskStates:    cloneTaskStates(taskStates),
		robotIndex:    robotIndex,
		taskIndex:     taskIndex,
		sortedRobotID: sortedRobotID,
		dt:            core.NewTime(1),
		tNow:          startAt,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(sim)
	}
	sim.history = []Snapshot{sim.Snapshot()}
	return sim, nil
}

// SetAssignPolicy rebinds the assignment strategy for subsequent ticks.
func (s *Simulation) SetAssignPolicy(p assign.Policy) { s.assignPolicy = p }

// SetPathPolicy rebinds the pathfinding strategy for subsequent ticks.
func (s *Simulation) SetPathPolicy(p pathfind.Policy) { s.pathPolicy = p }

// Snapshot returns an independent deep copy of the current state.
func (s *Simulation) Snapshot() Snapshot {
	return newSnapshot(s.tNow, s.environment, s.robots, s.tasks, s.robotStates, s.taskStates)
}

// History returns the ordered snapshots recorded so far, one per tick
// including the initial snapshot taken at construction (t=0 for New, the
// parent's current tick for Fork).
func (s *Simulation) History() []Snapshot {
	out := make([]Snapshot, len(s.history))
	copy(out, s.history)
	return out
}

// Step advances the simulation by exactly one tick.
func (s *Simulation) Step() error {
	if s.assignPolicy == nil || s.pathPolicy == nil {
		return ErrNoStrategy
	}

	s.tNow = s.tNow.Advance(s.dt)

	assignments := s.assignPolicy(s.tasks, s.robots, s.taskStates, s.robotStates)
	s.lastAssignments = assignments

	robotToTask := s.resolveAssignments(assignments)
	s.applyTaskAssignments(robotToTask)

	plans := s.planPhase(robotToTask)
	resolveConflicts(s.environment.Mode(), s.robots, plans)
	s.executePhase(plans, robotToTask)

	s.history = append(s.history, s.Snapshot())
	return nil
}

// Run steps the simulation until its clock reaches tick maxSteps or every
// task has reached a terminal state, whichever comes first. The bound is on
// the clock, not on the number of calls: a fork that starts at tick k runs
// at most maxSteps-k ticks.
func (s *Simulation) Run(maxSteps int) (Result, error) {
	for s.tNow.Tick < maxSteps && !s.allTerminal() {
		if err := s.Step(); err != nil {
			return Result{}, err
		}
	}
	return s.result(), nil
}

// Fork builds a new Simulation from this one's current state: a deep copy
// of both state maps, the same environment, robots, tasks, pathfinding
// policy, and dt, but with its assignment policy fixed to the supplied
// assignment list. No mutable state is shared between parent and fork.
func (s *Simulation) Fork(assignment []core.Assignment) (*Simulation, error) {
	return newSimulation(
		s.environment, s.robots, s.tasks, s.robotStates, s.taskStates, s.tNow,
		WithAssignPolicy(assign.Fixed(assignment)),
		WithPathPolicy(s.pathPolicy),
		WithDT(s.dt),
		WithLogger(s.logger),
	)
}

func (s *Simulation) allTerminal() bool {
	for _, t := range s.tasks {
		if !s.taskStates[t.ID].Status.IsTerminal() {
			return false
		}
	}
	return true
}

func (s *Simulation) result() Result {
	succeeded := 0
	for _, t := range s.tasks {
		if s.taskStates[t.ID].Status == core.Done {
			succeeded++
		}
	}
	completed := s.allTerminal()
	res := Result{
		Completed:      completed,
		TasksSucceeded: succeeded,
		TasksTotal:     len(s.tasks),
		Snapshots:      s.History(),
	}
	if completed {
		makespan := s.tNow
		res.Makespan = &makespan
	}
	return res
}
