package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
)

// handleAnalyzePlan answers with the bare {success, analysis|error} shape
// rather than the standard envelope.
func (s *Server) handleAnalyzePlan() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PlanAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.PlanAnalysisResponse{
				Error: err.Error(),
				Code:  errs.CodeValidation,
			})
			return
		}

		analysis, err := s.AnalysisService.AnalyzePlan(c.Request.Context(), &req)
		if err != nil {
			status := http.StatusInternalServerError
			resp := models.PlanAnalysisResponse{Error: err.Error()}
			var apiErr *errs.Error
			if errors.As(err, &apiErr) {
				status = apiErr.Status
				resp.Code = apiErr.Code
			}
			s.Log.WithError(err).WithField("house_id", req.HouseID).Error("plan analysis failed")
			c.JSON(status, resp)
			return
		}
		c.JSON(http.StatusOK, models.PlanAnalysisResponse{Success: true, Analysis: analysis})
	}
}
