package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/server/response"
)

func (s *Server) handleCreateHouse() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var req models.HouseRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		house, err := s.HouseService.CreateHouse(c.Request.Context(), &req, user)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "house registered", http.StatusCreated, house, nil)
	}
}

func (s *Server) handleListHouses() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		limit, offset := pagination(c)
		filter := models.HouseFilter{
			Status: strings.ToLower(strings.TrimSpace(c.Query("status"))),
			City:   strings.TrimSpace(c.Query("city")),
			Search: strings.TrimSpace(c.Query("search")),
			Limit:  limit,
			Offset: offset,
		}
		houses, total, err := s.HouseService.ListHouses(filter, user)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "houses retrieved", http.StatusOK, listResponse(houses, total, limit, offset), nil)
	}
}

func (s *Server) handleGetHouse() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		house, err := s.HouseService.GetHouse(id, user)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "house retrieved", http.StatusOK, house, nil)
	}
}

func (s *Server) handleUpdateHouse() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var req models.HouseUpdateRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		house, err := s.HouseService.UpdateHouse(c.Request.Context(), id, &req, user)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "house updated", http.StatusOK, house, nil)
	}
}

func (s *Server) handleDeleteHouse() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		if err := s.HouseService.DeleteHouse(c.Request.Context(), id, user); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "house deleted", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		file, err := c.FormFile("file")
		if err != nil {
			response.JSON(c, "file is required", http.StatusBadRequest, nil, err)
			return
		}
		result, err := s.MediaService.Upload(c.Request.Context(), file, c.PostForm("folder"), user.ID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "file uploaded", http.StatusCreated, result, nil)
	}
}
