package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/clauselens-backend/internal/http/middleware"
	"github.com/clauselens/clauselens-backend/internal/http/response"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/services"
)

type QueryRequest struct {
	Query       string              `json:"query"`
	DocID       string              `json:"docId"`
	ChatHistory []services.ChatTurn `json:"chatHistory"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
}

type QueryHandler struct {
	log   *logger.Logger
	query services.QueryService
}

func NewQueryHandler(log *logger.Logger, query services.QueryService) *QueryHandler {
	return &QueryHandler{log: log.With("handler", "QueryHandler"), query: query}
}

func (h *QueryHandler) Query(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing authenticated user"))
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Query == "" {
		response.RespondError(c, http.StatusBadRequest, "bad_request", errors.New(`JSON body with "query" field is required`))
		return
	}

	answer, err := h.query.Answer(c.Request.Context(), userID, req.DocID, req.Query, req.ChatHistory)
	if err != nil {
		h.log.Error("Query failed", "user_id", userID, "doc_id", req.DocID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "query_failed", errors.New("could not process your query"))
		return
	}

	response.RespondOK(c, QueryResponse{Answer: answer})
}
