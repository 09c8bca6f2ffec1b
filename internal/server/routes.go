package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/sandbox"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

// RegisterRoutes wires the external interfaces (spec §6) onto the Echo
// instance: Submit/Resume/Status/Cancel for a single Execution.
func RegisterRoutes(e *echo.Echo, executor *sandbox.Executor) {
	h := &handlers{executor: executor}

	e.GET("/healthz", h.health)
	e.POST("/v1/executions", h.submit)
	e.POST("/v1/executions/:id/resume", h.resume)
	e.POST("/v1/executions/:id/resume-batch", h.resumeBatch)
	e.GET("/v1/executions/:id", h.status)
	e.DELETE("/v1/executions/:id", h.cancel)
}

type handlers struct {
	executor *sandbox.Executor
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type submitRequestBody struct {
	OwnerID string         `json:"ownerId"`
	Source  string         `json:"source"`
	Limits  *engine.Limits `json:"limits,omitempty"`
}

func (h *handlers) submit(c echo.Context) error {
	var body submitRequestBody
	if err := c.Bind(&body); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if body.Source == "" {
		return apperror.NewBadRequest("source is required")
	}

	view, err := h.executor.Submit(c.Request().Context(), sandbox.SubmitRequest{
		OwnerID: body.OwnerID,
		Source:  body.Source,
		Limits:  body.Limits,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

type resumeRequestBody struct {
	Sequence int64 `json:"sequenceNumber"`
	Value    any   `json:"value"`
}

func (h *handlers) resume(c echo.Context) error {
	var body resumeRequestBody
	if err := c.Bind(&body); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	view, err := h.executor.Resume(c.Request().Context(), sandbox.ResumeRequest{
		ExecutionID: c.Param("id"),
		Sequence:    body.Sequence,
		Value:       body.Value,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

type resumeBatchRequestBody struct {
	ParallelID string         `json:"parallelId"`
	Results    map[string]any `json:"results"` // sequence number (as string) -> value
}

func parseSequenceKeys(raw map[string]any) (map[int64]any, error) {
	out := make(map[int64]any, len(raw))
	for k, v := range raw {
		seq, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sequence number key %q", k)
		}
		out[seq] = v
	}
	return out, nil
}

func (h *handlers) resumeBatch(c echo.Context) error {
	var body resumeBatchRequestBody
	if err := c.Bind(&body); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	results, err := parseSequenceKeys(body.Results)
	if err != nil {
		return apperror.NewBadRequest(err.Error())
	}

	view, rerr := h.executor.ResumeBatch(c.Request().Context(), sandbox.ResumeBatchRequest{
		ExecutionID: c.Param("id"),
		ParallelID:  body.ParallelID,
		Results:     results,
	})
	if rerr != nil {
		return rerr
	}
	return c.JSON(http.StatusOK, view)
}

func (h *handlers) status(c echo.Context) error {
	view, err := h.executor.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *handlers) cancel(c echo.Context) error {
	view, err := h.executor.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
