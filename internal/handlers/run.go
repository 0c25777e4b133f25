package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/service"
)

// RunHandler handles run-related requests.
type RunHandler struct {
	service *service.RunService
	logger  *zap.Logger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(service *service.RunService, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		service: service,
		logger:  logger,
	}
}

// CreateRunRequest represents the request to create a run.
type CreateRunRequest struct {
	Hints string `form:"hints" binding:"omitempty"`
	WPM   int    `form:"wpm" binding:"omitempty"`
}

// CreateRun handles POST /api/v1/runs.
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, 1001, "invalid parameters", err.Error())
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, 1003, "video upload failed", err.Error())
		return
	}

	run, err := h.service.CreateRun(c.Request.Context(), file, req.Hints, req.WPM)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPipelineBusy):
			h.respondError(c, http.StatusConflict, 1005, "a run is already in progress", "")
		case errors.Is(err, service.ErrUnsupportedFormat), errors.Is(err, service.ErrInvalidWPM):
			h.respondError(c, http.StatusBadRequest, 1001, "invalid parameters", err.Error())
		default:
			h.logger.Error("Failed to create run", zap.Error(err))
			h.respondError(c, http.StatusInternalServerError, 1004, "internal error", err.Error())
		}
		return
	}

	h.respondSuccess(c, gin.H{
		"run_id":     run.ID.String(),
		"status":     string(run.Status),
		"wpm":        run.WPM,
		"created_at": run.CreatedAt.Format(time.RFC3339),
	})
}

// GetRun handles GET /api/v1/runs/:run_id.
func (h *RunHandler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("run_id"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, 1001, "invalid parameters", "invalid run_id")
		return
	}

	run, stages, err := h.service.GetRunWithStages(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			h.respondError(c, http.StatusNotFound, 1002, "run not found", "")
			return
		}
		h.logger.Error("Failed to get run", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, 1004, "internal error", err.Error())
		return
	}

	stageResponses := make([]gin.H, len(stages))
	for i, stage := range stages {
		stageResp := gin.H{
			"stage":      stage.Stage,
			"status":     string(stage.Status),
			"started_at": stage.StartedAt.Format(time.RFC3339),
			"ended_at":   nil,
			"error":      stage.Error,
		}
		if stage.EndedAt != nil {
			stageResp["ended_at"] = stage.EndedAt.Format(time.RFC3339)
		}
		stageResponses[i] = stageResp
	}

	h.respondSuccess(c, gin.H{
		"run_id":               run.ID.String(),
		"status":               string(run.Status),
		"stage":                run.Stage,
		"wpm":                  run.WPM,
		"context_hints":        run.ContextHints,
		"transcript":           run.Transcript,
		"corrected_transcript": run.CorrectedTranscript,
		"error":                run.Error,
		"created_at":           run.CreatedAt.Format(time.RFC3339),
		"updated_at":           run.UpdatedAt.Format(time.RFC3339),
		"stages":               stageResponses,
	})
}

// ListRuns handles GET /api/v1/runs.
func (h *RunHandler) ListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	runs, total, err := h.service.ListRuns(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, 1004, "internal error", err.Error())
		return
	}

	runList := make([]gin.H, len(runs))
	for i, run := range runs {
		runList[i] = gin.H{
			"run_id":     run.ID.String(),
			"status":     string(run.Status),
			"stage":      run.Stage,
			"wpm":        run.WPM,
			"created_at": run.CreatedAt.Format(time.RFC3339),
		}
	}

	h.respondSuccess(c, gin.H{
		"runs":      runList,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetRunDownload handles GET /api/v1/runs/:run_id/download.
func (h *RunHandler) GetRunDownload(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("run_id"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, 1001, "invalid parameters", "invalid run_id")
		return
	}

	artifactType := c.DefaultQuery("type", "video")
	url, err := h.service.GetDownloadURL(c.Request.Context(), runID, artifactType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			h.respondError(c, http.StatusNotFound, 1002, "run not found", "")
		case errors.Is(err, service.ErrArtifactNotReady):
			h.respondError(c, http.StatusBadRequest, 1006, "artifact not available", "")
		default:
			h.logger.Error("Failed to get download URL", zap.Error(err))
			h.respondError(c, http.StatusInternalServerError, 1004, "internal error", err.Error())
		}
		return
	}

	h.respondSuccess(c, gin.H{
		"download_url": url,
		"expires_in":   3600,
	})
}

// DeleteRun handles DELETE /api/v1/runs/:run_id.
func (h *RunHandler) DeleteRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("run_id"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, 1001, "invalid parameters", "invalid run_id")
		return
	}

	if err := h.service.DeleteRun(c.Request.Context(), runID); err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			h.respondError(c, http.StatusNotFound, 1002, "run not found", "")
			return
		}
		h.logger.Error("Failed to delete run", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, 1004, "internal error", err.Error())
		return
	}

	h.respondSuccess(c, nil)
}

// respondSuccess sends a success response.
func (h *RunHandler) respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

// respondError sends an error response.
func (h *RunHandler) respondError(c *gin.Context, statusCode, code int, message, details string) {
	c.JSON(statusCode, gin.H{
		"code":    code,
		"message": message,
		"data":    details,
	})
}
