package core

// RobotID is a unique robot identifier.
type RobotID int

// Battery drain rates applied per unit of distance travelled, per unit of
// work time, and per unit of idle time, respectively.
const (
	KMove = 0.001
	KWork = 0.002
	KIdle = 0.0005
)

// arrivalEpsilon is the tolerance used for the continuous-mode goal-arrival
// test in AtGoal. MoveTowards uses its own, much smaller 1e-9 threshold for
// its near-zero remaining-distance no-op.
const arrivalEpsilon = 0.5

const moveToleranceEpsilon = 1e-9

// Robot is the static, shared-readable description of an agent: its
// identity, capabilities, and movement envelope. Robots are never mutated
// after construction; all per-tick state lives in RobotState.
type Robot struct {
	ID           RobotID
	Capabilities CapabilitySet
	Speed        float64 // cells (or meters) per unit time; must be > 0
	Radius       float64 // body radius, continuous mode only; 0 in discrete mode
}

// RobotState is the mutable, per-run state of a Robot: its current position
// and battery level. The Simulation owns RobotState exclusively; Robot
// methods that take a *RobotState only ever mutate the state passed to
// them, never global state.
type RobotState struct {
	Position     Position
	BatteryLevel float64
}

// Clone returns an independent copy of the state.
func (s RobotState) Clone() RobotState { return s }

// MoveTowards advances state.Position one step towards target over dt time
// units, per the engine's Mode, and drains battery proportionally to the
// distance travelled.
//
// Discrete mode moves exactly to target if speed*dt covers the Manhattan
// distance to it (the caller is expected to pass an adjacent cell as
// target, per the pathfinder contract); otherwise it does not move at all,
// since discrete movement is a single atomic cell-step.
//
// Continuous mode translates by min(speed*dt, distance-to-target) along the
// straight line to target; if the remaining distance is below a small
// epsilon, it is a no-op.
func (r *Robot) MoveTowards(state *RobotState, target Position, dt float64, mode Mode) {
	switch mode {
	case Discrete:
		if r.Speed*dt+moveToleranceEpsilon < float64(state.Position.Manhattan(target)) {
			return
		}
		dist := state.Position.Distance(target)
		state.Position = target
		state.BatteryLevel -= dist * KMove
	default:
		dist := state.Position.Distance(target)
		if dist < 1e-9 {
			return
		}
		step := r.Speed * dt
		if step >= dist {
			state.Position = target
			state.BatteryLevel -= dist * KMove
			return
		}
		ratio := step / dist
		dx := (target.X - state.Position.X) * ratio
		dy := (target.Y - state.Position.Y) * ratio
		state.Position = Position{X: state.Position.X + dx, Y: state.Position.Y + dy}
		state.BatteryLevel -= step * KMove
	}
}

// Work drains battery for one dt of task execution. It performs no
// decisions and no task-state mutation; the caller (the engine) is
// responsible for applying work progress via Task.ApplyWork.
func (r *Robot) Work(state *RobotState, dt float64) {
	state.BatteryLevel -= dt * KWork
}

// Idle drains battery for one dt of standing by.
func (r *Robot) Idle(state *RobotState, dt float64) {
	state.BatteryLevel -= dt * KIdle
}

// AtGoal reports whether pos is already at target, per mode: exact cell
// equality in Discrete mode, within arrivalEpsilon in Continuous mode.
func AtGoal(pos, target Position, mode Mode) bool {
	if mode == Discrete {
		return pos.CellX() == target.CellX() && pos.CellY() == target.CellY()
	}
	return pos.Near(target, arrivalEpsilon)
}
