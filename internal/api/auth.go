package api

import (
	"net/http"

	"roombook/internal/domain"
	"roombook/internal/models"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// identityMiddleware resolves the caller once per request. It never rejects;
// operations decide whether an anonymous caller is acceptable.
func identityMiddleware(resolver domain.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := models.Anonymous
		if resolver != nil {
			id = resolver.Resolve(c.GetHeader("Authorization"), c.GetHeader)
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func callerFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Anonymous
}

// requireCaller aborts with 401 for anonymous callers.
func requireCaller(c *gin.Context) (models.Identity, bool) {
	caller := callerFrom(c)
	if !caller.Authenticated() {
		writeError(c, http.StatusUnauthorized, "authentication required")
		return caller, false
	}
	return caller, true
}
