// Package server implements the deployment server's REST+WS surface:
// plan deployment, run lifecycle management, checkpoint
// inspection/resume/fork, a run event WebSocket, and a Prometheus
// /metrics endpoint.
package server

import (
	"time"

	"github.com/plandrive/engine/orchestrator"
)

// DeployResponse is returned by POST /api/plans/deploy.
type DeployResponse struct {
	PlanID string `json:"plan_id"`
}

// PlanSummary describes one deployed plan.
type PlanSummary struct {
	PlanID      string `json:"plan_id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// RunRequest is the body of POST /api/runs.
type RunRequest struct {
	PlanID       string                  `json:"plan_id"`
	RunID        string                  `json:"run_id,omitempty"`
	UserID       string                  `json:"user_id"`
	GroundInputs map[string]any          `json:"ground_inputs,omitempty"`
	Agents       map[string]AgentBinding `json:"agents,omitempty"`
}

// AgentBinding names the tool bindings one named agent uses for the run's
// duration (llm_tool, file_tool, user_input_tool, ...).
type AgentBinding struct {
	Tools map[string]string `json:"tools,omitempty"`
}

// RunResponse is returned by POST /api/runs.
type RunResponse struct {
	RunID  string                  `json:"run_id"`
	Status string                  `json:"status"`
	Agents map[string]AgentBinding `json:"agents,omitempty"`
}

// RunSummary describes one run's current lifecycle state.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	PlanID    string    `json:"plan_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResultResponse is returned by GET /api/runs/{id}/result.
type ResultResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// CheckpointListResponse is returned by GET /api/checkpoints/{run_id}.
type CheckpointListResponse struct {
	RunID   string `json:"run_id"`
	Cycles  []int  `json:"cycles"`
}

// CheckpointActionRequest is the body of the checkpoint fork endpoint. The
// checkpoint resume endpoint reads no body: it always resumes from the
// latest checkpoint.
type CheckpointActionRequest struct {
	Cycle  int    `json:"cycle"`
	UserID string `json:"user_id,omitempty"`
}

// ForkResponse is returned by POST /api/checkpoints/{run_id}/fork.
type ForkResponse struct {
	RunID string `json:"run_id"`
}

// WSEvent is the JSON shape streamed over /ws/runs/{id}.
type WSEvent struct {
	Cycle       int    `json:"cycle"`
	InferenceID string `json:"inference_id"`
	FlowIndex   string `json:"flow_index"`
	Status      string `json:"status"`
	Err         string `json:"error,omitempty"`
}

func toWSEvent(ev orchestrator.Event) WSEvent {
	return WSEvent{
		Cycle:       ev.Cycle,
		InferenceID: ev.InferenceID,
		FlowIndex:   ev.FlowIndex,
		Status:      string(ev.Status),
		Err:         ev.Err,
	}
}
