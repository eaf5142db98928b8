package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daivikpurani/AI-Tutor/service"
	"github.com/daivikpurani/AI-Tutor/types"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
	}
}

func (h *DocumentHandler) HandleList(c *gin.Context) {
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   h.documents.List(),
	})
}

func (h *DocumentHandler) HandleDelete(c *gin.Context) {
	documentID := c.Param("id")
	if err := h.documents.Delete(c.Request.Context(), documentID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrDocumentNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, types.DataResponse{
			Status:  false,
			Message: "Error deleting document",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  true,
		Message: "Document deleted",
	})
}
