package api

import (
	"net/http"

	"github.com/cert-roster-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EmailHandler handles bulk certificate email endpoints
type EmailHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(services *service.Services, log zerolog.Logger) *EmailHandler {
	return &EmailHandler{
		services: services,
		log:      log.With().Str("handler", "email").Logger(),
	}
}

// startBatchRequest is the JSON body for POST /v1/email-batches
type startBatchRequest struct {
	Name           string   `json:"name"`
	RosterID       string   `json:"roster_id,omitempty"`
	CertificateIDs []string `json:"certificate_ids,omitempty"`
}

// StartBatch handles POST /v1/email-batches
// Accepts either an explicit certificate list or a roster to email wholesale.
func (h *EmailHandler) StartBatch(c *gin.Context) {
	ctx := c.Request.Context()

	var req startBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	certificateIDs := req.CertificateIDs
	if len(certificateIDs) == 0 && req.RosterID != "" {
		certs, err := h.services.Submission.GetRosterCertificates(ctx, req.RosterID)
		if err != nil {
			h.log.Error().Err(err).Str("roster_id", req.RosterID).Msg("Failed to load roster certificates")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load roster certificates"})
			return
		}
		for _, cert := range certs {
			certificateIDs = append(certificateIDs, cert.ID)
		}
	}

	if len(certificateIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "certificate_ids or roster_id is required"})
		return
	}

	batch, err := h.services.Email.StartBatch(ctx, certificateIDs, req.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to start email batch")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": batch.ID,
		"status":   batch.Status,
		"total":    batch.TotalCertificates,
	})
}

// GetBatch handles GET /v1/email-batches/:batch_id
// One read of the batch row; presentation layers poll this for progress.
func (h *EmailHandler) GetBatch(c *gin.Context) {
	ctx := c.Request.Context()

	batch, err := h.services.Email.GetBatch(ctx, c.Param("batch_id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get email batch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get email batch"})
		return
	}
	if batch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "email batch not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch": batch,
		"progress": gin.H{
			"total":      batch.TotalCertificates,
			"processed":  batch.ProcessedCertificates,
			"successful": batch.SuccessfulEmails,
			"failed":     batch.FailedEmails,
		},
	})
}

// RetryCertificate handles POST /v1/email-batches/:batch_id/certificates/:certificate_id/retry
func (h *EmailHandler) RetryCertificate(c *gin.Context) {
	ctx := c.Request.Context()
	batchID := c.Param("batch_id")
	certificateID := c.Param("certificate_id")

	if err := h.services.Email.RetryCertificate(ctx, batchID, certificateID); err != nil {
		h.log.Error().Err(err).
			Str("batch_id", batchID).
			Str("certificate_id", certificateID).
			Msg("Failed to retry certificate email")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"batch_id":       batchID,
		"certificate_id": certificateID,
		"message":        "Retry dispatched to mail worker",
	})
}
