package middleware

import (
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/gin-gonic/gin"
)

// Tenant resolves the municipality from the X-Tenant-ID header and threads it
// through the request context. Absent header falls back to the default
// tenant, for single-municipality deployments.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := c.GetHeader("X-Tenant-ID")
		if tenant == "" {
			tenant = tenancy.DefaultTenant
		}
		ctx := tenancy.WithTenant(c.Request.Context(), tenant)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
