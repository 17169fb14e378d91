package toolserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orangedot/taskbotsim/internal/engine"
)

const straightLineScenario = `{
  "environment": {"width": 8, "height": 1, "mode": "discrete"},
  "robots": [{"id": 1, "capabilities": ["vision"], "speed": 1}],
  "tasks": [
    {"id": 1, "type": "routine_inspection", "priority": 1, "required_work_time": 2,
     "spatial_constraint": {"target": [5, 0]}, "required_capabilities": ["vision"]}
  ],
  "robot_states": [{"robot_id": 1, "position": [0, 0]}],
  "task_states": [{"task_id": 1}]
}`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	srv := New(zerolog.Nop())
	return srv, srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSimulation(t *testing.T, router *gin.Engine) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/simulations", bytes.NewReader([]byte(straightLineScenario)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.RunID)
	return body.RunID
}

func TestCreateStepSnapshotRoundTrips(t *testing.T) {
	_, router := newTestServer(t)
	id := createSimulation(t, router)

	rec := doJSON(t, router, http.MethodPost, "/simulations/"+id+"/step", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, 1, snap.TNow.Tick)

	rec = doJSON(t, router, http.MethodGet, "/simulations/"+id+"/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownSimulationReturnsNotFound(t *testing.T) {
	_, router := newTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/simulations/does-not-exist/snapshot", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// TestForkDoesNotMutateLiveSimulation exercises S8: forking with an
// override assignment and running the fork to completion must leave the
// live simulation's own clock untouched.
func TestForkDoesNotMutateLiveSimulation(t *testing.T) {
	_, router := newTestServer(t)
	id := createSimulation(t, router)

	rec := doJSON(t, router, http.MethodPost, "/simulations/"+id+"/step", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/simulations/"+id+"/step", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	liveBefore := doJSON(t, router, http.MethodGet, "/simulations/"+id+"/snapshot", nil)
	require.Equal(t, http.StatusOK, liveBefore.Code)
	var snapBefore engine.Snapshot
	require.NoError(t, json.Unmarshal(liveBefore.Body.Bytes(), &snapBefore))
	require.Equal(t, 2, snapBefore.TNow.Tick)

	forkReq := forkRequest{
		Assignment: []assignmentWire{{TaskID: 1, RobotIDs: []int{1}}},
		Steps:      10,
	}
	rec = doJSON(t, router, http.MethodPost, "/simulations/"+id+"/fork", forkReq)
	require.Equal(t, http.StatusOK, rec.Code)

	var result engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Completed)

	liveAfter := doJSON(t, router, http.MethodGet, "/simulations/"+id+"/snapshot", nil)
	require.Equal(t, http.StatusOK, liveAfter.Code)
	var snapAfter engine.Snapshot
	require.NoError(t, json.Unmarshal(liveAfter.Body.Bytes(), &snapAfter))
	require.Equal(t, 2, snapAfter.TNow.Tick, "forking and advancing the fork must not advance the live simulation's clock")
}

func TestAssignOverridesLivePolicy(t *testing.T) {
	_, router := newTestServer(t)
	id := createSimulation(t, router)

	rec := doJSON(t, router, http.MethodPost, "/simulations/"+id+"/assign", []assignmentWire{
		{TaskID: 1, RobotIDs: []int{1}},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/simulations/"+id+"/step", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
