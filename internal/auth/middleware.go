package auth

import (
	"coinflip/backend/internal/models"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const identityKey = "coinflip.identity"

// RequireIdentity rejects unauthenticated requests and stores the caller in the gin context.
func RequireIdentity(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.Authenticate(c.Request)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrMissingUserHeaders) {
				status = http.StatusBadRequest
			}
			logrus.WithFields(logrus.Fields{"path": c.FullPath(), "status": status}).Debug("Authentication failed")
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the caller stored by RequireIdentity.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
