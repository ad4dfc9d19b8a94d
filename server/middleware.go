package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/server/response"
	"github.com/techagentng/aquawatch/services/jwt"
	"go.uber.org/zap"
)

// Authorize resolves the bearer token to a user and stores it on the context
// as "user" and "userID".
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		accessClaims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		userID, err := jwt.UserIDFromClaims(accessClaims)
		if err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("Invalid userID format", http.StatusBadRequest))
			return
		}

		user, err := s.AuthRepository.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, errs.ErrNotFound):
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			default:
				s.Logger.Error("authorize: user lookup failed", zap.Uint("user_id", userID), zap.Error(err))
				respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			}
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// requireSeedEnabled hides the seed route unless seeding is switched on.
func (s *Server) requireSeedEnabled() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Config.SeedEnabled {
			respondAndAbort(c, "", http.StatusNotFound, nil, errs.ErrNotFound)
			return
		}
		c.Next()
	}
}

// limitRate allows limit requests per client IP each period. Counters live in
// redis when one is configured so every instance shares them; scope keeps
// routes from sharing a counter.
func (s *Server) limitRate(scope string, period time.Duration, limit uint) gin.HandlerFunc {
	var store ratelimit.Store
	if s.Redis != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: s.Redis,
			Rate:        period,
			Limit:       limit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  period,
			Limit: limit,
		})
	}
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      keyFunc(scope),
	})
}

func keyFunc(scope string) func(c *gin.Context) string {
	return func(c *gin.Context) string {
		return scope + ":" + c.ClientIP()
	}
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
