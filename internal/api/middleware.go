package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// sessionHeader carries the caller's session identity. Every data route
// is scoped by it.
const sessionHeader = "X-Session-ID"

const sessionKey = "sessionID"

// SessionMiddleware resolves the caller's session ID. A request without
// the header gets a fresh ID, echoed back so the client can keep using it.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(sessionKey, id)
		c.Header(sessionHeader, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	if id, ok := c.Get(sessionKey); ok {
		return id.(string)
	}
	return c.GetHeader(sessionHeader)
}
