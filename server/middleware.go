package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/server/response"
	"github.com/techagentng/firesafe/services/jwt"
	"gorm.io/gorm"
)

func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			// browsers cannot set headers on a websocket handshake
			accessToken = c.Query("token")
		}
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		if s.AuthRepository.IsTokenInBlacklist(accessToken) {
			respondAndAbort(c, "access token is blacklisted", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		accessClaims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var userID uint
		switch v := accessClaims["id"].(type) {
		case float64:
			userID = uint(v)
		default:
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("invalid userID format", http.StatusBadRequest))
			return
		}

		user, err := s.AuthRepository.FindUserByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.New(err.Error(), http.StatusUnauthorized))
				return
			}
			s.Log.WithError(err).WithField("user_id", userID).Error("unable to load user")
			respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		if user.IsBlocked {
			respondAndAbort(c, "inactive user", http.StatusUnauthorized, nil, errs.InActiveUserError)
			return
		}

		c.Set("user", user)
		c.Set("userID", userID)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// RequireAdmin must run after Authorize.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		if !user.IsAdmin() {
			respondAndAbort(c, "admin access required", http.StatusForbidden, nil, errs.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireWebhookSecret checks X-Webhook-Secret when a secret is configured.
func (s *Server) RequireWebhookSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Config.WebhookSecret != "" && c.GetHeader("X-Webhook-Secret") != s.Config.WebhookSecret {
			respondAndAbort(c, "invalid webhook secret", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// limitRateForLogin throttles login attempts per submitted e-mail.
func limitRateForLogin(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      emailKeyFunc,
	})
}

// limitRateByClient throttles by client address.
func limitRateByClient(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

// emailKeyFunc peeks at the body's email without consuming it. Bodies
// without one share the client address bucket.
func emailKeyFunc(c *gin.Context) string {
	buf, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return c.ClientIP()
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(buf))

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(buf, &body); err != nil || body.Email == "" {
		return c.ClientIP()
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

// getTokenFromHeader returns the token of a Bearer authorization header
func getTokenFromHeader(c *gin.Context) string {
	const scheme = "Bearer "
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) <= len(scheme) || !strings.EqualFold(authHeader[:len(scheme)], scheme) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(scheme):])
}
