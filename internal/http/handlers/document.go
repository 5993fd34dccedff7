package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/clauselens-backend/internal/http/response"
	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/services"
)

// ProcessRequest is the HTTP-trigger variant of the storage upload event.
type ProcessRequest struct {
	Bucket   string `json:"bucket" binding:"required"`
	FilePath string `json:"filePath" binding:"required"`
	MimeType string `json:"mimeType" binding:"required"`
}

type ProcessResponse struct {
	Status string `json:"status"`
}

type DocumentHandler struct {
	log      *logger.Logger
	pipeline services.PipelineService
}

func NewDocumentHandler(log *logger.Logger, pipeline services.PipelineService) *DocumentHandler {
	return &DocumentHandler{log: log.With("handler", "DocumentHandler"), pipeline: pipeline}
}

func (h *DocumentHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	status, err := h.pipeline.Process(c.Request.Context(), req.Bucket, req.FilePath, req.MimeType)
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrInvalidPath):
			response.RespondError(c, http.StatusBadRequest, "invalid_path", err)
		case errors.Is(err, pkgerrors.ErrDocumentBusy):
			response.RespondError(c, http.StatusConflict, "document_busy", err)
		default:
			response.RespondError(c, http.StatusInternalServerError, "processing_failed", err)
		}
		return
	}

	response.RespondOK(c, ProcessResponse{Status: string(status)})
}
