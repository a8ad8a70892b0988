package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mohamedzeina/node-social/services"
	"github.com/mohamedzeina/node-social/utils"
)

const (
	// ContextAuthenticatedKey marks whether the request carries a verified identity.
	ContextAuthenticatedKey = "authenticated"
	// ContextUserIDKey stores the authenticated user ID in the Gin context.
	ContextUserIDKey = "auth_user_id"
)

// Identify resolves an optional bearer token into an authentication result and
// attaches it to the request context. It never aborts: a missing, malformed,
// invalid or expired token just leaves the request unauthenticated. Handlers
// that require an identity check the result themselves, so the same gate
// serves public and protected operations alike.
func Identify() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(ContextAuthenticatedKey, false)

		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			ctx.Next()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			ctx.Next()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			ctx.Next()
			return
		}

		ctx.Set(ContextAuthenticatedKey, true)
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Next()
	}
}

// CurrentIdentity returns the authentication result attached by Identify.
func CurrentIdentity(ctx *gin.Context) services.Identity {
	if !ctx.GetBool(ContextAuthenticatedKey) {
		return services.Anonymous()
	}
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return services.Anonymous()
	}
	userID, ok := value.(uint)
	if !ok {
		return services.Anonymous()
	}
	return services.Authenticated(userID)
}
