package engine

import "errors"

// Configuration errors: programmer mistakes surfaced synchronously and
// never retried.
var (
	ErrNoStrategy        = errors.New("engine: no assignment or pathfinding strategy bound")
	ErrNilEnvironment    = errors.New("engine: nil environment")
	ErrMissingRobotState = errors.New("engine: missing robot state")
	ErrMissingTaskState  = errors.New("engine: missing task state")
)
