package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/auth"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/logger"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTResidentIDKey = "jwt_resident_id"
	JWTRoleKey       = "jwt_role"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/ready",
			"/api/v1/payments/callback",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if slices.Contains(cfg.SkipPaths, path) {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}
		residentID, _ := claims.ResidentID()

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTResidentIDKey, residentID)
		c.Set(JWTRoleKey, claims.Role)

		ctx, _ := logger.WithResidentID(c.Request.Context(), logger.FromContext(c.Request.Context()), residentID.String())
		c.Request = c.Request.WithContext(ctx)

		log.Debug("JWT authentication successful",
			zap.String("resident_id", residentID.String()),
			zap.String("role", string(claims.Role)),
		)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeTokenInvalid
	msg := "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		msg = "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		msg = "Token is not yet valid"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, msg, c.GetString(RequestIDKey)))
}

// RequireRole rejects callers whose token carries none of the roles
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(shared.CodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(shared.CodeForbidden, "Role "+string(role)+" may not perform this action", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetResidentID returns the authenticated resident id
func GetResidentID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(JWTResidentIDKey); exists {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetRole returns the authenticated caller's role
func GetRole(c *gin.Context) (auth.Role, bool) {
	if v, exists := c.Get(JWTRoleKey); exists {
		if role, ok := v.(auth.Role); ok && role.IsValid() {
			return role, true
		}
	}
	return "", false
}

// IsAdmin reports whether the caller holds the admin role
func IsAdmin(c *gin.Context) bool {
	role, ok := GetRole(c)
	return ok && role == auth.RoleAdmin
}
