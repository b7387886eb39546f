package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LOG returns a request-scoped sublogger.
func LOG(c *gin.Context) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"module": "placements.gateway",
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
}

// LOGE sets the response status and returns a sublogger carrying the
// error, callers chain the final .Error(msg) on it.
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	c.AbortWithStatusJSON(status, gin.H{"error": errMessage(err)})
	return LOG(c).WithError(err)
}

func errMessage(err error) string {
	if err == nil {
		return "request failed"
	}
	return err.Error()
}
