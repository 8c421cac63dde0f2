package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/models"
	"github.com/cert-roster-api/internal/service"
	"github.com/cert-roster-api/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RosterHandler handles roster upload, review, and submission endpoints
type RosterHandler struct {
	services *service.Services
	sessions *workflow.Manager
	cfg      *config.Config
	log      zerolog.Logger
}

// NewRosterHandler creates a new RosterHandler
func NewRosterHandler(services *service.Services, sessions *workflow.Manager, cfg *config.Config, log zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		services: services,
		sessions: sessions,
		cfg:      cfg,
		log:      log.With().Str("handler", "roster").Logger(),
	}
}

// UploadRoster handles POST /v1/rosters
// Accepts a multipart spreadsheet upload and returns the review payload.
func (h *RosterHandler) UploadRoster(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Roster.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file too large, max size is %d MB", h.cfg.Roster.MaxUploadSize/(1024*1024)),
		})
		return
	}

	selectedCourseID := c.PostForm("course_id")
	defaultCourseID := c.PostForm("default_course_id")

	result, err := h.services.Roster.ProcessUpload(ctx, file, selectedCourseID, defaultCourseID)
	if err != nil {
		h.log.Error().Err(err).Str("file", header.Filename).Msg("Failed to process upload")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	session := h.sessions.Create()
	if err := session.LoadReview(result.Entries); err != nil {
		h.sessions.Remove(session.ID)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "roster file contains no data rows"})
		return
	}
	if selectedCourseID != "" {
		session.SetSelections("", selectedCourseID, false)
	}

	h.log.Info().
		Str("session_id", session.ID).
		Str("file", header.Filename).
		Int("rows", result.TotalRows).
		Msg("Roster uploaded for review")

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"state":      session.State(),
		"review":     result,
	})
}

// submitRequest is the JSON body for POST /v1/sessions/:session_id/submit
type submitRequest struct {
	Name           string `json:"name"`
	LocationID     string `json:"location_id"`
	CourseID       string `json:"course_id"`
	InstructorName string `json:"instructor_name"`
	Confirmed      bool   `json:"confirmed"`
}

// SubmitRoster handles POST /v1/sessions/:session_id/submit
func (h *RosterHandler) SubmitRoster(c *gin.Context) {
	ctx := c.Request.Context()

	session := h.sessions.Get(c.Param("session_id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session.SetSelections(req.LocationID, req.CourseID, req.Confirmed)

	if err := session.BeginSubmit(); err != nil {
		status := http.StatusConflict
		if errors.Is(err, workflow.ErrNotReviewing) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error(), "reason": refusalReason(err)})
		return
	}

	gen := session.Generation()
	roster, processingStatus, err := h.services.Submission.Submit(ctx, &service.SubmitRequest{
		Name:           req.Name,
		Entries:        session.Entries(),
		LocationID:     req.LocationID,
		CourseID:       req.CourseID,
		InstructorName: req.InstructorName,
		Progress: func(snapshot models.ProcessingStatus) {
			session.UpdateStatus(gen, snapshot)
		},
	})
	if err != nil {
		// Batch-fatal: the roster record itself could not be created.
		session.FailSubmit()
		h.log.Error().Err(err).Str("session_id", session.ID).Msg("Roster submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit roster", "state": session.State()})
		return
	}

	if err := session.CompleteSubmit(processingStatus); err != nil {
		h.log.Error().Err(err).Str("session_id", session.ID).Msg("Failed to complete workflow")
	}

	c.JSON(http.StatusOK, gin.H{
		"roster_id": roster.ID,
		"state":     session.State(),
		"status":    processingStatus,
	})
}

// GetSession handles GET /v1/sessions/:session_id
func (h *RosterHandler) GetSession(c *gin.Context) {
	session := h.sessions.Get(c.Param("session_id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"state":      session.State(),
		"status":     session.Status(),
	})
}

// ResetSession handles POST /v1/sessions/:session_id/reset
// ("submit another batch")
func (h *RosterHandler) ResetSession(c *gin.Context) {
	session := h.sessions.Get(c.Param("session_id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	session.Reset()
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "state": session.State()})
}

// GetRoster handles GET /v1/rosters/:roster_id
func (h *RosterHandler) GetRoster(c *gin.Context) {
	ctx := c.Request.Context()

	roster, err := h.services.Submission.GetRoster(ctx, c.Param("roster_id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get roster")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get roster"})
		return
	}
	if roster == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "roster not found"})
		return
	}

	c.JSON(http.StatusOK, roster)
}

// GetRosterErrors handles GET /v1/rosters/:roster_id/errors
func (h *RosterHandler) GetRosterErrors(c *gin.Context) {
	ctx := c.Request.Context()
	rosterID := c.Param("roster_id")

	rowErrors, err := h.services.Submission.GetRosterErrors(ctx, rosterID)
	if err != nil {
		h.log.Error().Err(err).Str("roster_id", rosterID).Msg("Failed to get roster errors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get errors"})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=errors_%s.csv", rosterID))
		writer := csv.NewWriter(c.Writer)
		writer.Write([]string{"row", "field", "message", "kind"})
		for _, e := range rowErrors {
			writer.Write([]string{strconv.Itoa(e.RowIndex), e.Field, e.Message, string(e.Kind)})
		}
		writer.Flush()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roster_id":   rosterID,
		"error_count": len(rowErrors),
		"errors":      rowErrors,
	})
}

// ListCourses handles GET /v1/courses
func (h *RosterHandler) ListCourses(c *gin.Context) {
	courses, err := h.services.Catalog.ActiveCourses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// ListLocations handles GET /v1/locations
func (h *RosterHandler) ListLocations(c *gin.Context) {
	locations, err := h.services.Catalog.ActiveLocations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list locations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// refusalReason maps a workflow refusal to a stable machine-readable tag
func refusalReason(err error) string {
	switch {
	case errors.Is(err, workflow.ErrUnresolvedMismatches):
		return "unresolved_mismatches"
	case errors.Is(err, workflow.ErrNoLocation):
		return "missing_location"
	case errors.Is(err, workflow.ErrUnconfirmed):
		return "unconfirmed_checklist"
	default:
		return "invalid_state"
	}
}
