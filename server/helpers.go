package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/server/response"
	"go.uber.org/zap"
)

func getUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok && userID != 0
}

// mustUserID answers 401 and returns false when the request carries no user.
func mustUserID(c *gin.Context) (uint, bool) {
	userID, ok := getUserID(c)
	if !ok {
		response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
	}
	return userID, ok
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid "+name, http.StatusBadRequest))
		return 0, false
	}
	return uint(id), true
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// respondWithError maps err to its status. Errors without a status of their
// own are logged and answered with a generic 500.
func (s *Server) respondWithError(c *gin.Context, message string, err error) {
	status := errs.StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(message,
			zap.String("path", c.FullPath()),
			zap.Error(err))
		if _, ok := err.(*errs.Error); !ok {
			err = errs.ErrInternalServerError
		}
	}
	response.JSON(c, message, status, nil, err)
}
