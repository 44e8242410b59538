package util

import "github.com/gin-gonic/gin"

const jwtContextKey = "x-jwt-msg"

// SetJWTContext attaches the verified identity to the request context.
func SetJWTContext(c *gin.Context, msg JWTMessage) {
	c.Set(jwtContextKey, msg)
}

// GetToken returns the identity set by the auth middleware. The second value
// is false on unauthenticated routes.
func GetToken(c *gin.Context) (JWTMessage, bool) {
	v, ok := c.Get(jwtContextKey)
	if !ok {
		return JWTMessage{}, false
	}
	msg, ok := v.(JWTMessage)
	return msg, ok
}
