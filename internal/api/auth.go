package api

import (
	"net/http"
	"strings"
	"time"

	"mensa/internal/orders"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

const actorContextKey = "actor"

// Claims are the JWT claims the identity provider issues. The subject is
// the opaque owner id; admin marks cafeteria staff.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.StandardClaims
}

// AuthMiddleware verifies the bearer token and attaches the requesting
// actor to the gin context.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(actorContextKey, orders.Actor{ID: claims.Subject, Admin: claims.Admin})
		c.Next()
	}
}

// AdminOnly rejects non-administrative actors.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).Admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: staff only"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) orders.Actor {
	actor, _ := c.Get(actorContextKey)
	a, _ := actor.(orders.Actor)
	return a
}

// SignToken issues a token for the given owner. The server only vends
// these from tests and tooling; production tokens come from the campus
// identity provider using the same secret.
func SignToken(secret []byte, ownerID string, admin bool, ttl time.Duration) (string, error) {
	claims := &Claims{
		Admin: admin,
		StandardClaims: jwt.StandardClaims{
			Subject:   ownerID,
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
