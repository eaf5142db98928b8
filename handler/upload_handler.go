package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daivikpurani/AI-Tutor/service"
	"github.com/daivikpurani/AI-Tutor/types"
	"github.com/daivikpurani/AI-Tutor/utils"
)

type UploadHandler struct {
	documents *service.DocumentService
	uploadDir string
}

func NewUploadHandler(documents *service.DocumentService, uploadDir string) *UploadHandler {
	return &UploadHandler{
		documents: documents,
		uploadDir: uploadDir,
	}
}

// HandleUpload accepts a multipart course material file, extracts its text
// and ingests it into the vector index.
func (h *UploadHandler) HandleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Missing file",
		})
		return
	}

	format, ok := types.SourceFormatFromExt(filepath.Ext(file.Filename))
	if !ok {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Unsupported file format",
		})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Error preparing upload directory",
		})
		return
	}

	savedName := utils.TimestampedFilename(file.Filename)
	savedPath := filepath.Join(h.uploadDir, savedName)
	if err := c.SaveUploadedFile(file, savedPath); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Error saving file",
		})
		return
	}

	text, err := service.ExtractText(savedPath, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Error extracting text from file",
		})
		return
	}

	documentID := uuid.NewString()
	chunks, err := h.documents.Ingest(c.Request.Context(), documentID, file.Filename, text, format)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Error ingesting document"
		switch {
		case errors.Is(err, types.ErrEmptyDocument):
			status = http.StatusBadRequest
			message = types.ErrEmptyDocument.Error()
		case errors.Is(err, types.ErrUpstreamTimeout):
			status = http.StatusGatewayTimeout
			message = types.ErrUpstreamTimeout.Error()
		}
		c.JSON(status, types.DataResponse{
			Status:  false,
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status:  true,
		Message: "Document ingested",
		Data: types.UploadResponse{
			DocumentID:    documentID,
			Filename:      file.Filename,
			ChunksCreated: len(chunks),
		},
	})
}
