package handler

import (
	"net/http"
	"strconv"

	"shopadmin/internal/middleware"
	appErr "shopadmin/pkg/errors"
	"shopadmin/pkg/logger"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInvalidPayload = "Invalid request payload."

// respondError renders err with the status its code maps to. Internal causes
// are logged and never sent to the client.
func respondError(c *gin.Context, err error) {
	status, body := response.FromError(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, body)
}

func respondBadPayload(c *gin.Context) {
	c.JSON(http.StatusBadRequest, response.Error(msgInvalidPayload))
}

// parseID reads the :id path parameter. Anything that is not a positive
// integer cannot name a record, so it answers 404 with notFoundMsg.
func parseID(c *gin.Context, notFoundMsg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 || id > uint64(^uint(0)) {
		respondError(c, appErr.NotFound(notFoundMsg))
		return 0, false
	}
	return uint(id), true
}
