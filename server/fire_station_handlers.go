package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/server/response"
)

func (s *Server) handleListFireStations() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		stations, total, err := s.FireStationService.ListStations(strings.TrimSpace(c.Query("city")), strings.TrimSpace(c.Query("search")), limit, offset)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "fire stations retrieved", http.StatusOK, listResponse(stations, total, limit, offset), nil)
	}
}

func (s *Server) handleNearestFireStations() gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil {
			response.HandleErrors(c, errs.NewWithCode("lat and lng are required numbers", errs.CodeValidation, http.StatusBadRequest))
			return
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		if limit > MaxPageSize {
			limit = MaxPageSize
		}
		stations, err := s.FireStationService.NearestStations(lat, lng, limit)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "nearest fire stations", http.StatusOK, stations, nil)
	}
}

func (s *Server) handleGetFireStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		station, err := s.FireStationService.GetStation(id)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "fire station retrieved", http.StatusOK, station, nil)
	}
}

func (s *Server) handleCreateFireStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FireStationRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		station, err := s.FireStationService.CreateStation(&req)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "fire station created", http.StatusCreated, station, nil)
	}
}

func (s *Server) handleUpdateFireStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var req models.FireStationRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		station, err := s.FireStationService.UpdateStation(id, &req)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "fire station updated", http.StatusOK, station, nil)
	}
}

func (s *Server) handleUpdateDailyStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var req models.StaffUpdateRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		station, err := s.FireStationService.UpdateDailyStaff(id, *req.DailyStaffCount)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "daily staff updated", http.StatusOK, station, nil)
	}
}

func (s *Server) handleDeleteFireStation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		if err := s.FireStationService.DeleteStation(id); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "fire station deleted", http.StatusOK, nil, nil)
	}
}
