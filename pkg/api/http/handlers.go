package http

import (
	"net/http"

	"github.com/aescanero/cellflow/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CellInfo describes one cell of the topology.
type CellInfo struct {
	Name    string   `json:"name"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// GraphResponse describes the static topology plus the current values.
type GraphResponse struct {
	SessionID string         `json:"session_id"`
	Cells     []CellInfo     `json:"cells"`
	Edges     any            `json:"edges"`
	Order     []string       `json:"order"`
	Values    map[string]any `json:"values"`
	Sliders   any            `json:"sliders"`
}

// OutputResponse is one named output read.
type OutputResponse struct {
	Name  string           `json:"name"`
	State domain.CellState `json:"state"`
	Value any              `json:"value,omitempty"`
	Error string           `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"session_id": s.engine.SessionID(),
	})
}

// handleGetGraph returns the static topology, slider declarations, and
// current value-cell values.
func (s *Server) handleGetGraph(c *gin.Context) {
	g := s.engine.Graph()

	cells := make([]CellInfo, 0)
	for _, spec := range g.Cells() {
		cells = append(cells, CellInfo{
			Name:    spec.Name,
			Inputs:  spec.Inputs,
			Outputs: spec.Outputs,
		})
	}

	c.JSON(http.StatusOK, GraphResponse{
		SessionID: s.engine.SessionID(),
		Cells:     cells,
		Edges:     g.Edges(),
		Order:     g.TopologicalOrder(),
		Values:    s.engine.Values(),
		Sliders:   s.manifest.Values,
	})
}

// handleListCells returns the full graph snapshot.
func (s *Server) handleListCells(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

// handleGetCell returns one cell's latest execution result.
func (s *Server) handleGetCell(c *gin.Context) {
	name := c.Param("name")

	snap, ok := s.engine.CellSnapshot(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Cell not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// handleGetOutput reads one named output. Errored producers report the
// triggering error instead of a value.
func (s *Server) handleGetOutput(c *gin.Context) {
	name := c.Param("name")

	value, state, err := s.engine.Output(name)
	if err != nil && state == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: err.Error(),
			},
		})
		return
	}

	resp := OutputResponse{Name: name, State: state, Value: value}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// handleSetValue mutates a value cell and runs an evaluation pass.
func (s *Server) handleSetValue(c *gin.Context) {
	name := c.Param("name")

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}
	value, ok := body["value"]
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "missing field: value",
			},
		})
		return
	}

	if err := s.engine.SetValue(c.Request.Context(), name, value); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: err.Error(),
			},
		})
		return
	}

	if err := s.engine.Evaluate(c.Request.Context()); err != nil {
		s.logger.Error("evaluation failed", zap.String("value", name), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "EVALUATION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, s.engine.Snapshot())
}

// handleEvaluate runs an evaluation pass over the pending changes.
func (s *Server) handleEvaluate(c *gin.Context) {
	if err := s.engine.Evaluate(c.Request.Context()); err != nil {
		s.logger.Error("evaluation failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "EVALUATION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, s.engine.Snapshot())
}
