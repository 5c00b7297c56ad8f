package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/server/response"
)

func blogFilter(c *gin.Context) models.BlogFilter {
	limit, offset := pagination(c)
	return models.BlogFilter{
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
		Limit:    limit,
		Offset:   offset,
	}
}

func (s *Server) handleListPublishedPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := blogFilter(c)
		posts, total, err := s.BlogService.ListPublishedPosts(filter)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "posts retrieved", http.StatusOK, listResponse(posts, total, filter.Limit, filter.Offset), nil)
	}
}

func (s *Server) handleViewPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := s.BlogService.ViewPublishedPost(c.Param("slug"))
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "post retrieved", http.StatusOK, post, nil)
	}
}

func (s *Server) handleAdminListPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := blogFilter(c)
		posts, total, err := s.BlogService.ListPosts(filter)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "posts retrieved", http.StatusOK, listResponse(posts, total, filter.Limit, filter.Offset), nil)
	}
}

func (s *Server) handleAdminGetPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		post, err := s.BlogService.GetPost(id)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "post retrieved", http.StatusOK, post, nil)
	}
}

func (s *Server) handleCreatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var req models.BlogPostRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		post, err := s.BlogService.CreatePost(c.Request.Context(), &req, user.ID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "post created", http.StatusCreated, post, nil)
	}
}

func (s *Server) handleUpdatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		var req models.BlogPostRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		post, err := s.BlogService.UpdatePost(c.Request.Context(), id, &req)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "post updated", http.StatusOK, post, nil)
	}
}

func (s *Server) handleDeletePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		if err := s.BlogService.DeletePost(id); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "post deleted", http.StatusOK, nil, nil)
	}
}
