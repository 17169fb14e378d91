// Package toolserver exposes a live Simulation over HTTP so an
// out-of-process planner can load a scenario, step it, override its
// assignment policy, and fork hypothetical continuations without ever
// touching the engine directly. Ground truth for the surface:
// original_source/mcp_server/server.py and sim_state.py; concurrency
// replaces that source's process-wide singleton with a mutex-guarded map.
package toolserver

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/orangedot/taskbotsim/internal/assign"
	"github.com/orangedot/taskbotsim/internal/core"
	"github.com/orangedot/taskbotsim/internal/engine"
	"github.com/orangedot/taskbotsim/internal/loader"
	"github.com/orangedot/taskbotsim/internal/pathfind"
)

// Server holds every live simulation this process is hosting, keyed by the
// run id the loader minted for it when the scenario was posted.
type Server struct {
	mu            sync.Mutex
	simulations   map[string]*engine.Simulation
	subscribers   map[string][]chan engine.Snapshot
	logger        zerolog.Logger
	upgrader      websocket.Upgrader
}

// New builds an empty Server. logger receives warnings about dropped
// strategy-contract violations from every simulation it hosts.
func New(logger zerolog.Logger) *Server {
	return &Server{
		simulations: make(map[string]*engine.Simulation),
		subscribers: make(map[string][]chan engine.Snapshot),
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router builds the gin.Engine exposing the simulation API.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/simulations", s.handleCreate)
	router.GET("/simulations/:id/snapshot", s.handleSnapshot)
	router.POST("/simulations/:id/step", s.handleStep)
	router.POST("/simulations/:id/assign", s.handleAssign)
	router.POST("/simulations/:id/fork", s.handleFork)
	router.GET("/simulations/:id/stream", s.handleStream)

	return router
}

func (s *Server) lookup(id string) (*engine.Simulation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.simulations[id]
	return sim, ok
}

func (s *Server) handleCreate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := loader.Load(body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	pathPolicy := pathfind.Policy(pathfind.BFS)
	if result.Environment.Mode() == core.Continuous {
		pathPolicy = pathfind.AStar
	}

	sim, err := engine.New(
		result.Environment, result.Robots, result.Tasks, result.RobotStates, result.TaskStates,
		engine.WithAssignPolicy(assign.Greedy),
		engine.WithPathPolicy(pathPolicy),
		engine.WithLogger(s.logger),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.simulations[result.RunID] = sim
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"run_id": result.RunID})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	sim, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown simulation"})
		return
	}
	c.JSON(http.StatusOK, sim.Snapshot())
}

func (s *Server) handleStep(c *gin.Context) {
	id := c.Param("id")
	sim, ok := s.lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown simulation"})
		return
	}

	if err := sim.Step(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	snap := sim.Snapshot()
	s.broadcast(id, snap)
	c.JSON(http.StatusOK, snap)
}

// assignmentWire is the JSON form of a core.Assignment used by /assign and
// /fork.
type assignmentWire struct {
	TaskID   int   `json:"task_id"`
	RobotIDs []int `json:"robot_ids"`
}

func toAssignments(wire []assignmentWire) []core.Assignment {
	out := make([]core.Assignment, 0, len(wire))
	for _, w := range wire {
		ids := make([]core.RobotID, 0, len(w.RobotIDs))
		for _, r := range w.RobotIDs {
			ids = append(ids, core.RobotID(r))
		}
		out = append(out, core.Assignment{TaskID: core.TaskID(w.TaskID), RobotIDs: ids})
	}
	return out
}

func (s *Server) handleAssign(c *gin.Context) {
	sim, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown simulation"})
		return
	}

	var wire []assignmentWire
	if err := c.ShouldBindJSON(&wire); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sim.SetAssignPolicy(assign.Fixed(toAssignments(wire)))
	c.Status(http.StatusNoContent)
}

type forkRequest struct {
	Assignment []assignmentWire `json:"assignment"`
	Steps      int              `json:"steps"`
}

func (s *Server) handleFork(c *gin.Context) {
	sim, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown simulation"})
		return
	}

	var req forkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fork, err := sim.Fork(toAssignments(req.Assignment))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := fork.Run(fork.Snapshot().TNow.Tick + req.Steps)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleStream upgrades to a websocket and pushes the snapshot after every
// subsequent /step call against this simulation, in the spirit of
// niceyeti-tabular's fastview publisher (upgrade, then WriteJSON per
// update) simplified to this server's synchronous, single-writer use. Each
// subscriber has a one-slot buffer; a snapshot is dropped for a subscriber
// whose buffer is still full when the step completes.
func (s *Server) handleStream(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.lookup(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown simulation"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.subscribe(id)
	defer s.unsubscribe(id, updates)

	for snap := range updates {
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}
}

func (s *Server) subscribe(id string) chan engine.Snapshot {
	ch := make(chan engine.Snapshot, 1)
	s.mu.Lock()
	s.subscribers[id] = append(s.subscribers[id], ch)
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(id string, ch chan engine.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subscribers[id]
	for i, c := range subs {
		if c == ch {
			s.subscribers[id] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *Server) broadcast(id string, snap engine.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers[id] {
		select {
		case ch <- snap:
		default:
		}
	}
}
