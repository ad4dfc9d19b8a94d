package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"github.com/techagentng/aquawatch/server/response"
	"github.com/techagentng/aquawatch/services"
	"go.uber.org/zap"
)

const imageFormField = "image"

// formImage reads the optional image upload. A missing file is not an error.
func formImage(c *gin.Context) (*services.Image, error) {
	fileHeader, err := c.FormFile(imageFormField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New("unable to parse media", http.StatusBadRequest)
	}
	return services.ReadImage(fileHeader)
}

func (s *Server) handleSubmitReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}

		var req models.SubmitReportRequest
		if err := c.ShouldBind(&req); err != nil {
			response.JSON(c, "invalid report", http.StatusBadRequest, nil, validationError(err))
			return
		}
		image, err := formImage(c)
		if err != nil {
			s.respondWithError(c, "invalid image", err)
			return
		}

		report, err := s.ReportService.SubmitReport(c.Request.Context(), userID, &req, image)
		if err != nil {
			s.respondWithError(c, "unable to submit report", err)
			return
		}
		response.JSON(c, "Report submitted successfully", http.StatusCreated, report, nil)
	}
}

func (s *Server) handleAnalyzeImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		image, err := formImage(c)
		if err != nil {
			s.respondWithError(c, "invalid image", err)
			return
		}
		if image == nil {
			response.JSON(c, "image is required", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		analysis, err := s.AnalysisService.AnalyzeImage(c.Request.Context(), image.Data, image.ContentType, c.PostForm("description"))
		if err != nil {
			var apiErr *errs.Error
			if errors.As(err, &apiErr) {
				response.JSON(c, "unable to analyze image", apiErr.Status, nil, apiErr)
				return
			}
			s.Logger.Warn("image analysis failed", zap.Error(err))
			response.JSON(c, "unable to analyze image", http.StatusBadGateway, nil,
				errs.New("image analysis failed, please describe the issue manually", http.StatusBadGateway))
			return
		}
		response.JSON(c, "Image analyzed successfully", http.StatusOK, analysis, nil)
	}
}

func (s *Server) handleGetMyReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		reports, err := s.ReportService.ListMine(c.Request.Context(), userID)
		if err != nil {
			s.respondWithError(c, "unable to fetch reports", err)
			return
		}
		response.JSON(c, "Reports retrieved successfully", http.StatusOK, reports, nil)
	}
}

func (s *Server) handleGetRecentReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, err := s.ReportService.ListRecent(c.Request.Context(), queryLimit(c))
		if err != nil {
			s.respondWithError(c, "unable to fetch reports", err)
			return
		}
		response.JSON(c, "Reports retrieved successfully", http.StatusOK, reports, nil)
	}
}

func (s *Server) handleGetReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		reportID, ok := parseIDParam(c, "reportID")
		if !ok {
			return
		}
		report, err := s.ReportService.GetReport(c.Request.Context(), reportID)
		if err != nil {
			s.respondWithError(c, "unable to fetch report", err)
			return
		}
		response.JSON(c, "Report retrieved successfully", http.StatusOK, report, nil)
	}
}
