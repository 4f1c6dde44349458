package main

import (
	"time"

	"github.com/Moshfiqmoon/joingroup/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs every HTTP request with the resolved client IP
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {

		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", utils.GetIpAddress(c.Request.Header, c.Request.RemoteAddr)).
			Dur("duration", time.Since(start)).
			Msg("request")

	}
}
