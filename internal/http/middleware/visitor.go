package middleware

import (
	"github.com/gin-gonic/gin"
)

// visitorIDKey holds the visitor id resolved from a valid cookie.
const visitorIDKey = "userID"

// TokenParser validates a visitor token and returns the user id it names.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// Visitor reads the visitor cookie and, when its token is valid, stores the
// visitor id in the context. It never touches the database and never
// writes a cookie; handlers that need a visitor row resolve it themselves.
func Visitor(cookieName string, parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, err := c.Cookie(cookieName); err == nil && tok != "" {
			if id, err := parser.ParseToken(tok); err == nil {
				c.Set(visitorIDKey, id)
			}
		}
		c.Next()
	}
}

// VisitorID returns the id stored by Visitor, or "".
func VisitorID(c *gin.Context) string {
	v, _ := c.Get(visitorIDKey)
	return asString(v)
}
