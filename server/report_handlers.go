package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/server/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleGenerateReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var req models.ReportRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		report, err := s.ReportService.GenerateReport(c.Request.Context(), &req, &user.ID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "report generated", http.StatusCreated, report, nil)
	}
}

func (s *Server) handleListReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		reports, total, err := s.ReportService.ListReports(limit, offset)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "reports retrieved", http.StatusOK, listResponse(reports, total, limit, offset), nil)
	}
}

func (s *Server) handleGetReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		report, err := s.ReportService.GetReport(id)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "report retrieved", http.StatusOK, report, nil)
	}
}

func (s *Server) handleExportReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		data, filename, err := s.ReportService.ExportReport(id)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, data)
	}
}

func (s *Server) handleDashboardStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := s.DashboardService.Stats()
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "stats retrieved", http.StatusOK, stats, nil)
	}
}

// handleDashboardActivity takes since as RFC 3339; without it the last 24
// hours are returned.
func (s *Server) handleDashboardActivity() gin.HandlerFunc {
	return func(c *gin.Context) {
		since := time.Now().Add(-24 * time.Hour)
		if raw := c.Query("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				response.HandleErrors(c, errs.NewWithCode("since must be an RFC 3339 timestamp", errs.CodeValidation, http.StatusBadRequest))
				return
			}
			since = parsed
		}
		activity, err := s.DashboardService.Activity(since)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "activity retrieved", http.StatusOK, activity, nil)
	}
}
