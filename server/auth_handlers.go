package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := decode(c, &user); err != nil {
			response.HandleErrors(c, err)
			return
		}
		created, err := s.AuthService.SignupUser(c.Request.Context(), &user)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "signup successful", http.StatusCreated, created.ToResponse(), nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.JSON(c, "", errs.ErrBadRequest.Status, nil, err)
			return
		}
		userResponse, err := s.AuthService.LoginUser(&loginRequest)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, userResponse, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := c.GetString("access_token")
		if accessToken == "" {
			respondAndAbort(c, "access token not found in context", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		if err := s.AuthRepository.AddToBlackList(&models.Blacklist{Token: accessToken}); err != nil {
			s.Log.WithError(err).Error("error adding access token to blacklist")
			respondAndAbort(c, "logout failed", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		profile, err := s.AuthService.GetUserProfile(user.ID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "user profile retrieved", http.StatusOK, profile.ToResponse(), nil)
	}
}
