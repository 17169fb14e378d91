package engine

import (
	"math"
	"sort"

	"github.com/orangedot/taskbotsim/internal/core"
)

// resolveAssignments builds the robot->task reverse index for one tick's
// worth of assignments. A robot named by more than one Assignment in the
// list is last-writer-wins, per §4.6 step 2. Assignments naming an unknown
// task or robot id are a strategy-contract violation: dropped and logged,
// never fatal.
func (s *Simulation) resolveAssignments(assignments []core.Assignment) map[core.RobotID]core.TaskID {
	robotToTask := make(map[core.RobotID]core.TaskID, len(s.robots))
	for _, a := range assignments {
		if _, ok := s.taskIndex[a.TaskID]; !ok {
			s.logger.Warn().Int("task_id", int(a.TaskID)).Msg("assignment policy named an unknown task; dropping")
			continue
		}
		for _, rid := range a.RobotIDs {
			if _, ok := s.robotIndex[rid]; !ok {
				s.logger.Warn().Int("robot_id", int(rid)).Msg("assignment policy named an unknown robot; dropping")
				continue
			}
			robotToTask[rid] = a.TaskID
		}
	}
	return robotToTask
}

// applyTaskAssignments updates every task's TaskState to reflect the set of
// robots currently pointing to it, per §4.6 step 3.
func (s *Simulation) applyTaskAssignments(robotToTask map[core.RobotID]core.TaskID) {
	taskRobots := make(map[core.TaskID]map[core.RobotID]struct{}, len(s.tasks))
	for rid, tid := range robotToTask {
		set := taskRobots[tid]
		if set == nil {
			set = make(map[core.RobotID]struct{})
			taskRobots[tid] = set
		}
		set[rid] = struct{}{}
	}

	for i := range s.tasks {
		task := &s.tasks[i]
		state := s.taskStates[task.ID]
		task.SetAssignment(&state, taskRobots[task.ID])
		s.taskStates[task.ID] = state
	}
}

// robotPlan is one robot's outcome from the plan phase, carried into
// conflict resolution and the execute phase.
type robotPlan struct {
	unassignedOrTerminal bool
	atGoalOrNoConstraint bool
	step                 core.Position
	hasStep              bool
}

// planPhase resolves, for every robot in id order, a single planned step
// against a position snapshot frozen before any robot moves this tick, per
// §4.6 step 4.
func (s *Simulation) planPhase(robotToTask map[core.RobotID]core.TaskID) map[core.RobotID]*robotPlan {
	prePositions := make(map[core.RobotID]core.Position, len(s.robots))
	for _, r := range s.robots {
		prePositions[r.ID] = s.robotStates[r.ID].Position
	}

	mode := s.environment.Mode()
	plans := make(map[core.RobotID]*robotPlan, len(s.robots))

	for _, rid := range s.sortedRobotID {
		tid, assigned := robotToTask[rid]
		if !assigned {
			plans[rid] = &robotPlan{unassignedOrTerminal: true}
			continue
		}

		task := s.tasks[s.taskIndex[tid]]
		taskState := s.taskStates[tid]
		if taskState.Status.IsTerminal() {
			plans[rid] = &robotPlan{unassignedOrTerminal: true}
			continue
		}

		pos := prePositions[rid]

		if task.SpatialConstraint == nil {
			plans[rid] = &robotPlan{atGoalOrNoConstraint: true}
			continue
		}

		target, ok := s.resolveSpatialTarget(*task.SpatialConstraint, pos)
		if !ok {
			plans[rid] = &robotPlan{}
			continue
		}

		if core.AtGoal(pos, target, mode) {
			plans[rid] = &robotPlan{atGoalOrNoConstraint: true}
			continue
		}

		occupied := occupiedCellsExcept(prePositions, rid)
		step, found := s.pathPolicy(s.environment, pos, target, occupied)
		if !found {
			plans[rid] = &robotPlan{}
			continue
		}
		if !s.validateStep(pos, step) {
			s.logger.Warn().Int("robot_id", int(rid)).Msg("pathfinder returned an invalid step; idling")
			plans[rid] = &robotPlan{}
			continue
		}
		plans[rid] = &robotPlan{step: step, hasStep: true}
	}

	return plans
}

// resolveSpatialTarget resolves a task's spatial constraint to a concrete
// Position from the perspective of a robot currently at pos: a position
// constraint resolves directly, a zone constraint resolves to the nearest
// cell of that zone. Returns ok=false if a named zone no longer exists or
// has no cells.
func (s *Simulation) resolveSpatialTarget(c core.SpatialConstraint, pos core.Position) (core.Position, bool) {
	if !c.HasZone {
		return c.Target, true
	}
	zone, ok := s.environment.GetZone(c.Zone)
	if !ok {
		return core.Position{}, false
	}
	cell, ok := zone.NearestCell(pos)
	if !ok {
		return core.Position{}, false
	}
	return core.NewCellPosition(cell.X, cell.Y), true
}

// validateStep rejects a pathfinder result that is out of bounds or not
// reachable in a single agent step, a strategy-contract violation.
func (s *Simulation) validateStep(from, step core.Position) bool {
	if !s.environment.InBounds(step) {
		return false
	}
	dx := step.CellX() - from.CellX()
	dy := step.CellY() - from.CellY()
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

func occupiedCellsExcept(positions map[core.RobotID]core.Position, self core.RobotID) map[core.Cell]struct{} {
	out := make(map[core.Cell]struct{}, len(positions))
	for rid, pos := range positions {
		if rid == self {
			continue
		}
		x, y := pos.Cell()
		out[core.Cell{X: x, Y: y}] = struct{}{}
	}
	return out
}

func cellOf(pos core.Position) core.Cell {
	x, y := pos.Cell()
	return core.Cell{X: x, Y: y}
}

// resolveConflicts clears planned steps that would collide this tick, per
// §4.6 step 5. In Discrete mode, two robots cannot plan into the same
// cell: the smallest id wins. In Continuous mode, two robots cannot plan
// positions whose bodies would overlap: pairs are checked in ascending id
// order so the outcome is deterministic and order-independent, and the
// larger id yields.
func resolveConflicts(mode core.Mode, robots []core.Robot, plans map[core.RobotID]*robotPlan) {
	switch mode {
	case core.Discrete:
		groups := make(map[core.Cell][]core.RobotID)
		for _, r := range robots {
			p := plans[r.ID]
			if !p.hasStep {
				continue
			}
			c := cellOf(p.step)
			groups[c] = append(groups[c], r.ID)
		}
		for _, ids := range groups {
			if len(ids) < 2 {
				continue
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			for _, id := range ids[1:] {
				plans[id].hasStep = false
			}
		}
	default:
		radiusByID := make(map[core.RobotID]float64, len(robots))
		ids := make([]core.RobotID, 0, len(robots))
		for _, r := range robots {
			radiusByID[r.ID] = r.Radius
			ids = append(ids, r.ID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for i := 0; i < len(ids); i++ {
			a := ids[i]
			pa := plans[a]
			if !pa.hasStep {
				continue
			}
			for j := i + 1; j < len(ids); j++ {
				b := ids[j]
				pb := plans[b]
				if !pb.hasStep {
					continue
				}
				if pa.step.Distance(pb.step) < radiusByID[a]+radiusByID[b] {
					pb.hasStep = false
				}
			}
		}
	}
}

// executePhase drives each robot in id order, per §4.6 step 6.
func (s *Simulation) executePhase(plans map[core.RobotID]*robotPlan, robotToTask map[core.RobotID]core.TaskID) {
	mode := s.environment.Mode()
	dtF := float64(s.dt.Tick)

	for _, rid := range s.sortedRobotID {
		robot := s.robots[s.robotIndex[rid]]
		state := s.robotStates[rid]
		plan := plans[rid]

		switch {
		case plan.unassignedOrTerminal:
			robot.Idle(&state, dtF)

		case plan.hasStep && plan.step != state.Position:
			robot.MoveTowards(&state, plan.step, dtF, mode)
			if mode == core.Continuous {
				applyPushOut(s.environment, robot, &state)
			}

		case plan.atGoalOrNoConstraint:
			robot.Work(&state, dtF)
			if tid, ok := robotToTask[rid]; ok {
				task := &s.tasks[s.taskIndex[tid]]
				taskState := s.taskStates[tid]
				task.ApplyWork(&taskState, s.dt, s.tNow)
				s.taskStates[tid] = taskState
			}

		default:
			robot.Idle(&state, dtF)
		}

		s.robotStates[rid] = state
	}
}

// applyPushOut corrects a Continuous-mode robot that has clipped an
// obstacle's bounding box after a move: it is translated to the nearest
// point on the obstacle's surface plus the robot's radius along the
// penetration normal, or straight up to the obstacle's top edge plus the
// radius if the robot center landed inside the obstacle's box.
func applyPushOut(environment *core.Environment, robot core.Robot, state *core.RobotState) {
	if robot.Radius <= 0 {
		return
	}
	cx, cy := state.Position.Cell()
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cellX, cellY := cx+dx, cy+dy
			if !environment.CellInBounds(cellX, cellY) {
				continue
			}
			if !environment.IsObstacle(core.NewCellPosition(cellX, cellY)) {
				continue
			}
			pushOutOfCell(state, robot.Radius, cellX, cellY)
		}
	}
}

func pushOutOfCell(state *core.RobotState, radius float64, cellX, cellY int) {
	minX, maxX := float64(cellX), float64(cellX+1)
	minY, maxY := float64(cellY), float64(cellY+1)
	px, py := state.Position.X, state.Position.Y

	nearestX := clamp(px, minX, maxX)
	nearestY := clamp(py, minY, maxY)
	dx := px - nearestX
	dy := py - nearestY
	dist := math.Hypot(dx, dy)

	if dist >= radius {
		return
	}
	if dist < 1e-9 {
		state.Position = core.Position{X: px, Y: minY - radius}
		return
	}
	ratio := radius / dist
	state.Position = core.Position{X: nearestX + dx*ratio, Y: nearestY + dy*ratio}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
