package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auditstack/gst-return-scrutiny/dto"
	"github.com/auditstack/gst-return-scrutiny/service"
)

type ScrutinyHandler struct {
	scrutinyService *service.ScrutinyService
}

func NewScrutinyHandler(scrutinyService *service.ScrutinyService) *ScrutinyHandler {
	return &ScrutinyHandler{
		scrutinyService: scrutinyService,
	}
}

// Analyze handles the POST /scrutiny/analyze endpoint
func (h *ScrutinyHandler) Analyze(c *gin.Context) {
	log.Println("Received scrutiny analyze request")

	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	files := form.File["files[]"]
	if len(files) == 0 {
		h.sendError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	metadata := c.PostForm("metadata")
	if metadata == "" {
		h.sendError(c, http.StatusBadRequest, "Metadata is required", nil)
		return
	}

	request := &dto.ScrutinyRequest{
		Files:    files,
		Metadata: metadata,
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	log.Printf("Processing %d files", len(files))

	response, err := h.scrutinyService.Analyze(c.Request.Context(), request)
	if err != nil {
		var illegal *service.IllegalTransitionError
		switch {
		case errors.As(err, &illegal):
			h.sendError(c, http.StatusConflict, "Proceeding is not in a state that allows analysis", err)
		case errors.Is(err, dto.ErrInvalidMetadata):
			h.sendError(c, http.StatusBadRequest, "Invalid scrutiny metadata", err)
		default:
			h.sendError(c, http.StatusInternalServerError, "Failed to analyze proceeding", err)
		}
		return
	}

	log.Println("Scrutiny analysis completed successfully")
	c.JSON(http.StatusOK, response)
}

// Findings handles the GET /scrutiny/proceedings/:id/findings endpoint
func (h *ScrutinyHandler) Findings(c *gin.Context) {
	proceedingID := c.Param("id")

	findings, state, err := h.scrutinyService.Findings(c.Request.Context(), proceedingID)
	if err != nil {
		if errors.Is(err, dto.ErrUnknownProceeding) {
			h.sendError(c, http.StatusNotFound, "Proceeding not found", err)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "Failed to load findings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proceeding_id": proceedingID,
		"state":         state,
		"findings":      findings,
	})
}

// Finalize handles the POST /scrutiny/proceedings/:id/finalize endpoint
func (h *ScrutinyHandler) Finalize(c *gin.Context) {
	proceedingID := c.Param("id")

	state, err := h.scrutinyService.Finalize(c.Request.Context(), proceedingID)
	if err != nil {
		var illegal *service.IllegalTransitionError
		if errors.As(err, &illegal) {
			h.sendError(c, http.StatusConflict, "Proceeding cannot be finalized from its current state", err)
			return
		}
		if errors.Is(err, dto.ErrUnknownProceeding) {
			h.sendError(c, http.StatusNotFound, "Proceeding not found", err)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "Failed to finalize proceeding", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proceeding_id": proceedingID,
		"state":         state,
	})
}

// sendError sends a structured error response
func (h *ScrutinyHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "SCRUTINY_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
