package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/server/response"
)

// resolveRequest carries the collector's verification. Any JSON value is
// accepted and stored as-is.
type resolveRequest struct {
	VerificationResult json.RawMessage `json:"verification_result"`
}

func (s *Server) handleListTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := s.CollectionService.ListAvailableTasks(c.Request.Context(), queryLimit(c))
		if err != nil {
			s.respondWithError(c, "unable to fetch tasks", err)
			return
		}
		response.JSON(c, "Tasks retrieved successfully", http.StatusOK, tasks, nil)
	}
}

func (s *Server) handleClaimTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		collectorID, ok := mustUserID(c)
		if !ok {
			return
		}
		reportID, ok := parseIDParam(c, "reportID")
		if !ok {
			return
		}
		report, err := s.CollectionService.ClaimReport(c.Request.Context(), reportID, collectorID)
		if err != nil {
			s.respondWithError(c, "unable to claim report", err)
			return
		}
		response.JSON(c, "Report claimed successfully", http.StatusOK, report, nil)
	}
}

func (s *Server) handleResolveTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		collectorID, ok := mustUserID(c)
		if !ok {
			return
		}
		reportID, ok := parseIDParam(c, "reportID")
		if !ok {
			return
		}

		var req resolveRequest
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			response.JSON(c, "invalid verification result", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		report, err := s.CollectionService.ResolveReport(c.Request.Context(), reportID, collectorID, req.VerificationResult)
		if err != nil {
			s.respondWithError(c, "unable to resolve report", err)
			return
		}
		response.JSON(c, "Report resolved successfully", http.StatusOK, report, nil)
	}
}

func (s *Server) handleListCollected() gin.HandlerFunc {
	return func(c *gin.Context) {
		collectorID, ok := mustUserID(c)
		if !ok {
			return
		}
		issues, err := s.CollectionService.ListCollected(c.Request.Context(), collectorID)
		if err != nil {
			s.respondWithError(c, "unable to fetch collected issues", err)
			return
		}
		response.JSON(c, "Collected issues retrieved successfully", http.StatusOK, issues, nil)
	}
}
