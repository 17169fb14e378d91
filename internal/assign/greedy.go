package assign

import "github.com/orangedot/taskbotsim/internal/core"

// Greedy is the reference assignment policy. For each
// task in input order, it assigns the first robot (in input order) not yet
// claimed by an earlier task in this same call whose capability set is a
// superset of the task's required capabilities. Tasks with no feasible,
// unclaimed robot are skipped for this tick.
//
// Grounded on internal/algo.Prioritized.computeAssignment's capability-gated
// greedy matching, simplified to a single-pass, unweighted contract;
// capability gating mirrors
// original_source/simulation_models/coordinator.py's
// NearestFeasibleCoordinator.
func Greedy(
	tasks []core.Task,
	robots []core.Robot,
	_ map[core.TaskID]core.TaskState,
	_ map[core.RobotID]core.RobotState,
) []core.Assignment {
	used := make(map[core.RobotID]struct{}, len(robots))
	assignments := make([]core.Assignment, 0, len(tasks))

	for _, task := range tasks {
		for _, robot := range robots {
			if _, claimed := used[robot.ID]; claimed {
				continue
			}
			if !robot.Capabilities.Superset(task.RequiredCapabilities) {
				continue
			}
			used[robot.ID] = struct{}{}
			assignments = append(assignments, core.Assignment{
				TaskID:   task.ID,
				RobotIDs: []core.RobotID{robot.ID},
			})
			break
		}
	}

	return assignments
}
