// Package loader parses a scenario JSON document into the engine's input
// structures: an Environment, ordered Robots and Tasks, and their initial
// state maps. It is the sole source of validation errors on external
// input, aggregated so a caller sees every problem in one report rather
// than one at a time.
package loader

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/orangedot/taskbotsim/internal/core"
)

// Scenario is the wire format: a JSON document describing an environment,
// a robot fleet, a task list, and their initial per-run states.
type Scenario struct {
	Environment environmentDoc `json:"environment"`
	Robots      []robotDoc     `json:"robots"`
	Tasks       []taskDoc      `json:"tasks"`
	RobotStates []robotStateDoc `json:"robot_states"`
	TaskStates  []taskStateDoc  `json:"task_states"`
}

type environmentDoc struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Mode      string     `json:"mode"`
	Obstacles [][2]int   `json:"obstacles"`
	Zones     []zoneDoc  `json:"zones"`
}

type zoneDoc struct {
	ID        int      `json:"id"`
	Type      string   `json:"type"`
	Positions [][2]int `json:"positions"`
}

type robotDoc struct {
	ID           int      `json:"id"`
	Capabilities []string `json:"capabilities"`
	Speed        float64  `json:"speed"`
	Radius       float64  `json:"radius"`
}

type spatialConstraintDoc struct {
	Target      json.RawMessage `json:"target"`
	MaxDistance *int            `json:"max_distance"`
}

type taskDoc struct {
	ID                   int                    `json:"id"`
	Type                 string                 `json:"type"`
	Priority             int                    `json:"priority"`
	RequiredWorkTime     int                    `json:"required_work_time"`
	SpatialConstraint    *spatialConstraintDoc  `json:"spatial_constraint"`
	RequiredCapabilities []string               `json:"required_capabilities"`
	Dependencies         []int                  `json:"dependencies"`
	Deadline             *int                   `json:"deadline"`
}

type robotStateDoc struct {
	RobotID      int        `json:"robot_id"`
	Position     [2]float64 `json:"position"`
	BatteryLevel *float64   `json:"battery_level"`
}

type taskStateDoc struct {
	TaskID           int    `json:"task_id"`
	Status           string `json:"status"`
	AssignedRobotIDs []int  `json:"assigned_robot_ids"`
	WorkDone         int    `json:"work_done"`
	StartedAt        *int   `json:"started_at"`
	CompletedAt      *int   `json:"completed_at"`
}

// LoadResult carries the parsed engine inputs plus a freshly minted run
// identifier, so a caller (the CLI or the tool-server) can tag logs and
// exported metrics to one run without the loader reaching for real time or
// a database.
type LoadResult struct {
	RunID       string
	Environment *core.Environment
	Robots      []core.Robot
	Tasks       []core.Task
	RobotStates map[core.RobotID]core.RobotState
	TaskStates  map[core.TaskID]core.TaskState
}

// Load parses scenario JSON bytes into a LoadResult. All independent
// structural validation failures are collected and returned together via a
// single *multierror.Error rather than failing fast on the first one.
func Load(data []byte) (*LoadResult, error) {
	var doc Scenario
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: invalid JSON: %w", err)
	}

	var errs *multierror.Error

	environment, envErrs := buildEnvironment(doc.Environment)
	errs = multierror.Append(errs, envErrs...)

	robots, robotErrs := buildRobots(doc.Robots)
	errs = multierror.Append(errs, robotErrs...)

	tasks, taskErrs := buildTasks(doc.Tasks)
	errs = multierror.Append(errs, taskErrs...)

	if errs.ErrorOrNil() != nil {
		return nil, errs.ErrorOrNil()
	}

	robotStates, rsErrs := buildRobotStates(doc.RobotStates, robots)
	errs = multierror.Append(errs, rsErrs...)

	taskStates, tsErrs := buildTaskStates(doc.TaskStates, tasks)
	errs = multierror.Append(errs, tsErrs...)

	if errs.ErrorOrNil() != nil {
		return nil, errs.ErrorOrNil()
	}

	return &LoadResult{
		RunID:       uuid.NewString(),
		Environment: environment,
		Robots:      robots,
		Tasks:       tasks,
		RobotStates: robotStates,
		TaskStates:  taskStates,
	}, nil
}

func buildEnvironment(doc environmentDoc) (*core.Environment, []error) {
	var errs []error
	if doc.Width <= 0 || doc.Height <= 0 {
		errs = append(errs, fmt.Errorf("loader: environment width/height must be positive, got %dx%d", doc.Width, doc.Height))
		return nil, errs
	}

	mode := core.Discrete
	if doc.Mode == "continuous" {
		mode = core.Continuous
	} else if doc.Mode != "" && doc.Mode != "discrete" {
		errs = append(errs, fmt.Errorf("loader: unknown environment mode %q", doc.Mode))
	}

	environment := core.NewEnvironment(doc.Width, doc.Height, mode)

	for _, o := range doc.Obstacles {
		if err := environment.AddObstacle(core.NewCellPosition(o[0], o[1])); err != nil {
			// Duplicate obstacle cells collapse silently (idempotent
			// AddObstacle); any other failure (out of bounds) is reported.
			if environment.IsObstacle(core.NewCellPosition(o[0], o[1])) {
				continue
			}
			errs = append(errs, fmt.Errorf("loader: %w", err))
		}
	}

	for _, z := range doc.Zones {
		zoneType, ok := core.ParseZoneType(z.Type)
		if !ok {
			errs = append(errs, fmt.Errorf("loader: zone %d: unknown type %q", z.ID, z.Type))
			continue
		}
		cells := make([]core.Cell, 0, len(z.Positions))
		for _, p := range z.Positions {
			cells = append(cells, core.Cell{X: p[0], Y: p[1]})
		}
		if err := environment.AddZone(core.NewZone(core.ZoneID(z.ID), zoneType, cells)); err != nil {
			errs = append(errs, fmt.Errorf("loader: %w", err))
		}
	}

	return environment, errs
}

func buildRobots(docs []robotDoc) ([]core.Robot, []error) {
	var errs []error
	seen := make(map[core.RobotID]struct{}, len(docs))
	robots := make([]core.Robot, 0, len(docs))

	for _, d := range docs {
		id := core.RobotID(d.ID)
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("loader: duplicate robot id %d", d.ID))
			continue
		}
		seen[id] = struct{}{}

		if d.Speed <= 0 {
			errs = append(errs, fmt.Errorf("loader: robot %d: speed must be positive", d.ID))
			continue
		}

		caps := core.CapabilitySet{}
		ok := true
		for _, c := range d.Capabilities {
			cap, parsed := core.ParseCapability(c)
			if !parsed {
				errs = append(errs, fmt.Errorf("loader: robot %d: unknown capability %q", d.ID, c))
				ok = false
				continue
			}
			caps[cap] = struct{}{}
		}
		if !ok {
			continue
		}

		robots = append(robots, core.Robot{ID: id, Capabilities: caps, Speed: d.Speed, Radius: d.Radius})
	}

	return robots, errs
}

func buildTasks(docs []taskDoc) ([]core.Task, []error) {
	var errs []error
	seen := make(map[core.TaskID]struct{}, len(docs))
	tasks := make([]core.Task, 0, len(docs))

	for _, d := range docs {
		id := core.TaskID(d.ID)
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("loader: duplicate task id %d", d.ID))
			continue
		}
		seen[id] = struct{}{}

		taskType, ok := core.ParseTaskType(d.Type)
		if !ok {
			errs = append(errs, fmt.Errorf("loader: task %d: unknown type %q", d.ID, d.Type))
			continue
		}

		caps := core.CapabilitySet{}
		capsOK := true
		for _, c := range d.RequiredCapabilities {
			cap, parsed := core.ParseCapability(c)
			if !parsed {
				errs = append(errs, fmt.Errorf("loader: task %d: unknown required capability %q", d.ID, c))
				capsOK = false
				continue
			}
			caps[cap] = struct{}{}
		}
		if !capsOK {
			continue
		}

		constraint, err := buildSpatialConstraint(d.ID, d.SpatialConstraint)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		deps := make([]core.TaskID, 0, len(d.Dependencies))
		for _, dep := range d.Dependencies {
			deps = append(deps, core.TaskID(dep))
		}

		var deadline *core.Time
		if d.Deadline != nil {
			t := core.NewTime(*d.Deadline)
			deadline = &t
		}

		tasks = append(tasks, core.Task{
			ID:                   id,
			Type:                 taskType,
			Priority:             d.Priority,
			RequiredWorkTime:     core.NewTime(d.RequiredWorkTime),
			SpatialConstraint:    constraint,
			RequiredCapabilities: caps,
			Dependencies:         deps,
			Deadline:             deadline,
		})
	}

	return tasks, errs
}

func buildSpatialConstraint(taskID int, doc *spatialConstraintDoc) (*core.SpatialConstraint, error) {
	if doc == nil {
		return nil, nil
	}

	var asCell [2]int
	if err := json.Unmarshal(doc.Target, &asCell); err == nil {
		c := core.PositionConstraint(core.NewCellPosition(asCell[0], asCell[1]))
		applyMaxDistance(&c, doc.MaxDistance)
		return &c, nil
	}

	var asZoneID int
	if err := json.Unmarshal(doc.Target, &asZoneID); err == nil {
		c := core.ZoneConstraint(core.ZoneID(asZoneID))
		applyMaxDistance(&c, doc.MaxDistance)
		return &c, nil
	}

	return nil, fmt.Errorf("loader: task %d: spatial_constraint.target must be [x,y] or a zone id", taskID)
}

func applyMaxDistance(c *core.SpatialConstraint, maxDistance *int) {
	if maxDistance == nil {
		return
	}
	c.MaxDistance = *maxDistance
	c.HasMaxDist = true
}

func buildRobotStates(docs []robotStateDoc, robots []core.Robot) (map[core.RobotID]core.RobotState, []error) {
	var errs []error
	states := make(map[core.RobotID]core.RobotState, len(robots))

	for _, d := range docs {
		id := core.RobotID(d.RobotID)
		battery := 1.0
		if d.BatteryLevel != nil {
			battery = *d.BatteryLevel
		}
		states[id] = core.RobotState{
			Position:     core.Position{X: d.Position[0], Y: d.Position[1]},
			BatteryLevel: battery,
		}
	}

	for _, r := range robots {
		if _, ok := states[r.ID]; !ok {
			errs = append(errs, fmt.Errorf("loader: robot %d: missing robot_states entry", r.ID))
		}
	}

	return states, errs
}

func buildTaskStates(docs []taskStateDoc, tasks []core.Task) (map[core.TaskID]core.TaskState, []error) {
	var errs []error
	states := make(map[core.TaskID]core.TaskState, len(tasks))

	for _, d := range docs {
		id := core.TaskID(d.TaskID)
		state := core.NewTaskState()

		status := d.Status
		if status == "" {
			status = "unassigned"
		}
		parsedStatus, ok := parseTaskStatus(status)
		if !ok {
			errs = append(errs, fmt.Errorf("loader: task %d: unknown status %q", d.TaskID, status))
			continue
		}
		state.Status = parsedStatus

		for _, rid := range d.AssignedRobotIDs {
			state.AssignedRobotIDs[core.RobotID(rid)] = struct{}{}
		}
		state.WorkDone = core.NewTime(d.WorkDone)
		if d.StartedAt != nil {
			t := core.NewTime(*d.StartedAt)
			state.StartedAt = &t
		}
		if d.CompletedAt != nil {
			t := core.NewTime(*d.CompletedAt)
			state.CompletedAt = &t
		}

		states[id] = state
	}

	for _, t := range tasks {
		if _, ok := states[t.ID]; !ok {
			errs = append(errs, fmt.Errorf("loader: task %d: missing task_states entry", t.ID))
		}
	}

	return states, errs
}

func parseTaskStatus(s string) (core.TaskStatus, bool) {
	switch s {
	case "unassigned":
		return core.Unassigned, true
	case "assigned":
		return core.Assigned, true
	case "in_progress":
		return core.InProgress, true
	case "done":
		return core.Done, true
	case "failed":
		return core.Failed, true
	default:
		return 0, false
	}
}
