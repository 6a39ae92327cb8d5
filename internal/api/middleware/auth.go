package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/pkg/jwthelper"
)

const principalKey = "principal"

// PrincipalLoader re-fetches the acting user per request so role and club
// membership are always current, never trusted from the token.
type PrincipalLoader interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type Authenticator struct {
	signingKey []byte
	users      PrincipalLoader
}

func NewAuthenticator(signingKey string, users PrincipalLoader) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
		users:      users,
	}
}

// VerifyJWT validates the bearer token and threads the freshly loaded
// principal into the request context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})

			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})

			return
		}

		principal, err := a.users.GetUser(ctx.Request.Context(), claims.UID)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown principal"})

			return
		}

		ctx.Set(principalKey, principal)
		ctx.Next()
	}
}

// CurrentPrincipal returns the authenticated user set by VerifyJWT.
func CurrentPrincipal(ctx *gin.Context) (domain.User, bool) {
	value, exists := ctx.Get(principalKey)
	if !exists {
		return domain.User{}, false
	}

	principal, ok := value.(domain.User)

	return principal, ok
}
