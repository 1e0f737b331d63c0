package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Tenant header and gin context key
const (
	TenantHeaderKey = "X-Tenant-ID"
	TenantIDKey     = "tenant_id"
)

// TenantConfig holds configuration for tenant middleware
type TenantConfig struct {
	// DefaultTenantID is used when the request carries no X-Tenant-ID.
	// uuid.Nil makes the header mandatory.
	DefaultTenantID uuid.UUID
	// SkipPaths don't need a tenant (health check, metrics)
	SkipPaths []string
}

// DefaultTenantConfig returns a configuration requiring the header
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// Tenant resolves the shop a request acts on from X-Tenant-ID, falling
// back to the configured default tenant.
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID := cfg.DefaultTenantID
		if header := c.GetHeader(TenantHeaderKey); header != "" {
			parsed, err := uuid.Parse(header)
			if err != nil {
				abortTenant(c, "Invalid tenant ID format")
				return
			}
			tenantID = parsed
		}
		if tenantID == uuid.Nil {
			abortTenant(c, "Tenant identification required")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

func abortTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInvalidInput, message, GetRequestID(c),
	))
}

// GetTenantID returns the tenant resolved by Tenant, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
