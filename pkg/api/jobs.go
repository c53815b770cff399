package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/models"
)

type createJobRequest struct {
	JobType     string          `json:"job_type" binding:"required"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
	OwnerUserID *string         `json:"owner_user_id"`
}

// CreateJob handles POST /llm_jobs. The worker's stream consumer picks this
// job up off the corresponding Redis stream (see pkg/jobqueue); this handler
// only persists the row.
func (s *Server) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := s.store.CreateJob(c.Request.Context(), &models.LLMJob{
		JobType:     req.JobType,
		Payload:     req.Payload,
		OwnerUserID: req.OwnerUserID,
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// ListJobs handles GET /llm_jobs?status=&limit=.
func (s *Server) ListJobs(c *gin.Context) {
	var status *models.JobStatus
	if raw := c.Query("status"); raw != "" {
		st := models.JobStatus(raw)
		status = &st
	}
	var limit int
	if raw := c.Query("limit"); raw != "" {
		json.Unmarshal([]byte(raw), &limit)
	}
	jobs, err := s.store.ListJobs(c.Request.Context(), status, limit)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob handles GET /llm_jobs/:id.
func (s *Server) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	job, err := s.store.GetJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type patchJobRequest struct {
	Status models.JobStatus `json:"status" binding:"required"`
	Result json.RawMessage  `json:"result"`
	Error  string           `json:"error"`
}

// PatchJob handles PATCH /llm_jobs/:id. It's the completion/failure/claim
// surface used by pkg/gatewayclient on behalf of the worker, mirroring
// pkg/jobqueue.JobStore's ClaimJob/CompleteJob/FailJob trio over HTTP.
func (s *Server) PatchJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	var req patchJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch req.Status {
	case models.JobProcessing:
		job, err := s.store.ClaimQueuedJob(ctx, id)
		if err != nil {
			writeError(c, s.logger, err)
			return
		}
		c.JSON(http.StatusOK, job)
		return
	case models.JobCompleted:
		if err := s.store.CompleteJob(ctx, id, req.Result); err != nil {
			writeError(c, s.logger, err)
			return
		}
	case models.JobFailed:
		if err := s.store.FailJob(ctx, id, req.Error); err != nil {
			writeError(c, s.logger, err)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported status transition"})
		return
	}

	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
