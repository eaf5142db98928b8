package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daivikpurani/AI-Tutor/service"
	"github.com/daivikpurani/AI-Tutor/types"
)

type ChatHandler struct {
	queryHandler *service.QueryHandler
}

func NewChatHandler(queryHandler *service.QueryHandler) *ChatHandler {
	return &ChatHandler{
		queryHandler: queryHandler,
	}
}

// HandleChat is the non-streaming chat endpoint.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	resp, err := h.queryHandler.ProcessQuery(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Error processing query"
		switch {
		case errors.Is(err, types.ErrInvalidQuery):
			status = http.StatusBadRequest
			message = types.ErrInvalidQuery.Error()
		case errors.Is(err, types.ErrUpstreamTimeout):
			status = http.StatusGatewayTimeout
			message = types.ErrUpstreamTimeout.Error()
		case errors.Is(err, types.ErrEmbeddingUnavailable):
			status = http.StatusBadGateway
			message = types.ErrEmbeddingUnavailable.Error()
		}
		c.JSON(status, types.DataResponse{
			Status:  false,
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   resp,
	})
}
