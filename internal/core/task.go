package core

// TaskID is a unique task identifier.
type TaskID int

// SpatialConstraint names where a task must be performed: either a concrete
// cell or a zone (resolved to the nearest zone cell at planning time), with
// an optional tolerance. Exactly one of Target / Zone is meaningful,
// selected by HasZone.
type SpatialConstraint struct {
	Target      Position
	Zone        ZoneID
	HasZone     bool
	MaxDistance int
	HasMaxDist  bool
}

// PositionConstraint builds a SpatialConstraint targeting a concrete cell.
func PositionConstraint(target Position) SpatialConstraint {
	return SpatialConstraint{Target: target}
}

// ZoneConstraint builds a SpatialConstraint targeting a zone.
func ZoneConstraint(zone ZoneID) SpatialConstraint {
	return SpatialConstraint{Zone: zone, HasZone: true}
}

// Task is the static, shared-readable description of a work item: what
// capabilities it needs, how long it takes, where it must happen, and what
// must finish before it can start. Tasks are never mutated after
// construction; all per-run state lives in TaskState.
type Task struct {
	ID                   TaskID
	Type                 TaskType
	Priority             int
	RequiredWorkTime     Time
	SpatialConstraint    *SpatialConstraint // nil: no spatial constraint
	RequiredCapabilities CapabilitySet
	Dependencies         []TaskID
	Deadline             *Time // nil: no deadline
}

// TaskStatus is a task's lifecycle stage.
type TaskStatus int

const (
	Unassigned TaskStatus = iota
	Assigned
	InProgress
	Done
	Failed
)

func (s TaskStatus) String() string {
	switch s {
	case Unassigned:
		return "unassigned"
	case Assigned:
		return "assigned"
	case InProgress:
		return "in_progress"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is a terminal status (Done or Failed).
func (s TaskStatus) IsTerminal() bool { return s == Done || s == Failed }

// TaskState is the mutable, per-run state of a Task: its lifecycle status,
// currently assigned robots, accumulated work, and timestamps.
type TaskState struct {
	Status           TaskStatus
	AssignedRobotIDs map[RobotID]struct{}
	WorkDone         Time
	StartedAt        *Time
	CompletedAt      *Time
}

// NewTaskState builds a fresh, unassigned TaskState.
func NewTaskState() TaskState {
	return TaskState{
		Status:           Unassigned,
		AssignedRobotIDs: make(map[RobotID]struct{}),
	}
}

// Clone returns an independent deep copy of the state.
func (s TaskState) Clone() TaskState {
	out := TaskState{
		Status:   s.Status,
		WorkDone: s.WorkDone,
	}
	out.AssignedRobotIDs = make(map[RobotID]struct{}, len(s.AssignedRobotIDs))
	for id := range s.AssignedRobotIDs {
		out.AssignedRobotIDs[id] = struct{}{}
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// sameRobotSet reports whether a and b contain the same robot ids.
func sameRobotSet(a, b map[RobotID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// SetAssignment replaces the task's current assignment with robotIDs.
//
// If robotIDs is empty and the status is Unassigned or Assigned, the status
// reverts (or stays) Unassigned. If robotIDs is non-empty and the status is
// Unassigned, the status becomes Assigned. Once InProgress (or terminal), a
// change in the assigned set never reverts the status. A call with the same
// robot set as already assigned is a no-op.
func (t *Task) SetAssignment(state *TaskState, robotIDs map[RobotID]struct{}) {
	if sameRobotSet(state.AssignedRobotIDs, robotIDs) {
		return
	}
	if state.Status.IsTerminal() {
		return
	}
	next := make(map[RobotID]struct{}, len(robotIDs))
	for id := range robotIDs {
		next[id] = struct{}{}
	}
	state.AssignedRobotIDs = next

	if len(next) == 0 {
		if state.Status == Unassigned || state.Status == Assigned {
			state.Status = Unassigned
		}
		return
	}
	if state.Status == Unassigned {
		state.Status = Assigned
	}
}

// ApplyWork advances the task's work progress by dt, called once per tick
// for a robot actively executing it. It is a no-op if the task is already
// terminal. On the first application it stamps StartedAt and transitions to
// InProgress; once accumulated work reaches RequiredWorkTime, it marks the
// task Done.
func (t *Task) ApplyWork(state *TaskState, dt Time, tNow Time) {
	if state.Status.IsTerminal() {
		return
	}
	if state.StartedAt == nil {
		started := tNow
		state.StartedAt = &started
	}
	state.Status = InProgress
	state.WorkDone = Time{Tick: state.WorkDone.Tick + dt.Tick}
	if state.WorkDone.Tick >= t.RequiredWorkTime.Tick {
		t.MarkDone(state, tNow)
	}
}

// MarkDone transitions the task to its terminal Done status.
func (t *Task) MarkDone(state *TaskState, tNow Time) {
	markTerminal(state, Done, tNow)
}

// MarkFailed transitions the task to its terminal Failed status.
func (t *Task) MarkFailed(state *TaskState, tNow Time) {
	markTerminal(state, Failed, tNow)
}

func markTerminal(state *TaskState, status TaskStatus, tNow Time) {
	if state.Status.IsTerminal() {
		return
	}
	state.Status = status
	completed := tNow
	state.CompletedAt = &completed
	state.AssignedRobotIDs = make(map[RobotID]struct{})
}
