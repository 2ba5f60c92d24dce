package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/infrastructure/logger"
)

// Gin context keys and headers for tenant scoping
const (
	TenantIDKey     = "tenant_id"
	ShopIDKey       = "shop_id"
	TenantHeaderKey = "X-Tenant-ID"
	ShopHeaderKey   = "X-Shop-ID"
)

// TenantConfig holds configuration for the tenant middleware
type TenantConfig struct {
	// SkipPaths are paths served without tenant context
	SkipPaths []string
	// ShopRequired rejects requests that carry no X-Shop-ID header
	ShopRequired bool
}

// DefaultTenantConfig returns the default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths:    []string{"/health", "/healthz", "/ready"},
		ShopRequired: true,
	}
}

// Tenant extracts the tenant and shop from request headers. Every domain
// operation is scoped to one shop of one tenant; a request without that
// scope is rejected before it reaches a handler. The identity provider in
// front of this service fills the headers.
func Tenant() gin.HandlerFunc {
	return TenantWithConfig(DefaultTenantConfig())
}

// TenantWithConfig returns the tenant middleware with custom configuration
func TenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(c.GetHeader(TenantHeaderKey))
		if err != nil || tenantID == uuid.Nil {
			abortTenant(c, "A valid X-Tenant-ID header is required")
			return
		}
		c.Set(TenantIDKey, tenantID)

		ctx := c.Request.Context()
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID.String())

		shopHeader := c.GetHeader(ShopHeaderKey)
		if shopHeader == "" {
			if cfg.ShopRequired {
				abortTenant(c, "A valid X-Shop-ID header is required")
				return
			}
		} else {
			shopID, err := uuid.Parse(shopHeader)
			if err != nil || shopID == uuid.Nil {
				abortTenant(c, "X-Shop-ID header is not a valid UUID")
				return
			}
			c.Set(ShopIDKey, shopID)
			ctx, _ = logger.WithShopID(ctx, logger.FromContext(ctx), shopID.String())
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "MISSING_TENANT_CONTEXT",
			"message": message,
		},
	})
}

// GetTenantID returns the tenant stored by the middleware
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(TenantIDKey)
	if !exists {
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	return tenantID, ok
}

// GetShopID returns the shop stored by the middleware
func GetShopID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ShopIDKey)
	if !exists {
		return uuid.Nil, false
	}
	shopID, ok := value.(uuid.UUID)
	return shopID, ok
}
