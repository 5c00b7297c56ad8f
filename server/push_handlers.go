package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/server/response"
	"github.com/techagentng/firesafe/services/jwt"
)

func (s *Server) handlePushSubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PushSubscriptionRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		var userID *uint
		if user := s.optionalUser(c); user != nil {
			userID = &user.ID
		}
		token, err := s.NotificationService.Subscribe(&req, userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "subscribed", http.StatusCreated, token, nil)
	}
}

func (s *Server) handlePushUnsubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PushSubscriptionRequest
		if err := decode(c, &req); err != nil {
			response.HandleErrors(c, err)
			return
		}
		if err := s.NotificationService.Unsubscribe(req.Subscription); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "unsubscribed", http.StatusOK, nil, nil)
	}
}

// handleBlogWebhook receives database change notifications for blog rows and
// runs the push fan-out for published records.
func (s *Server) handleBlogWebhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		var notification models.ChangeNotification
		if err := c.ShouldBindJSON(&notification); err != nil {
			response.JSON(c, "invalid change notification", http.StatusBadRequest, nil, errs.NewWithCode(err.Error(), errs.CodeValidation, http.StatusBadRequest))
			return
		}
		result, err := s.NotificationService.HandlePublishedPost(c.Request.Context(), notification.Record)
		if err != nil {
			s.Log.WithError(err).WithField("slug", notification.Record.Slug).Error("push fan-out failed")
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "notifications processed", http.StatusOK, result, nil)
	}
}

// optionalUser resolves the bearer token when one is sent; anonymous
// subscribers are allowed.
func (s *Server) optionalUser(c *gin.Context) *models.User {
	token := getTokenFromHeader(c)
	if token == "" || s.AuthRepository.IsTokenInBlacklist(token) {
		return nil
	}
	claims, err := jwt.ValidateAndGetClaims(token, s.Config.JWTSecret)
	if err != nil {
		return nil
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return nil
	}
	user, err := s.AuthRepository.FindUserByID(uint(id))
	if err != nil {
		return nil
	}
	return user
}
