package middlewares

import (
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// Authenticator validates bearer tokens signed either with the shared
// JWT_SECRET (HS256) or by the identity provider's JWKS (RS256).
type Authenticator struct {
	db     *gorm.DB
	secret []byte
	jwks   *keyfunc.JWKS
}

func NewAuthenticator(db *gorm.DB, secret string, jwksURL string) (*Authenticator, error) {
	a := &Authenticator{db: db, secret: []byte(secret)}
	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Printf("[Auth] JWKS refresh failed: %s\n", err.Error())
			},
		})
		if err != nil {
			return nil, err
		}
		a.jwks = jwks
	}
	if len(a.secret) == 0 && a.jwks == nil {
		return nil, errors.New("either JWT_SECRET or CLERK_JWKS_URL must be set")
	}
	return a, nil
}

// Close stops the JWKS refresh goroutine.
func (a *Authenticator) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

func (a *Authenticator) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(a.secret) == 0 {
			return nil, errors.New("HMAC tokens are not accepted")
		}
		return a.secret, nil
	default:
		if a.jwks == nil {
			return nil, errors.New("no JWKS configured")
		}
		return a.jwks.Keyfunc(t)
	}
}

func (a *Authenticator) AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	reqToken, ok := strings.CutPrefix(bearerToken, "Bearer ")
	if !ok || strings.TrimSpace(reqToken) == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(strings.TrimSpace(reqToken), claims, a.keyFunc)
	if err != nil || !tkn.Valid {
		if err != nil {
			log.Printf("[Auth] token error: %s\n", err.Error())
		}
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var user models.User
	if err := a.db.
		WithContext(ctx.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", claims.Subject).
		First(&user).
		Error; err != nil {
		log.Printf("[Auth] unknown subject %s: %s\n", claims.Subject, err.Error())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}
	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("role", string(user.Role))
	ctx.Set("staff", user.IsStaff())
}

// RequireRole lets the request through when the authenticated user holds one
// of roles.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := types.Role(ctx.GetString("role"))
		if !slices.Contains(roles, role) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
	}
}
