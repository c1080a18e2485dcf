// Package tenancy threads the tenant scope explicitly through every call.
// There is no hidden global scoping: the middleware resolves the tenant once
// per request and repositories filter by the value carried on the context.
package tenancy

import "context"

type ctxKey struct{}

// DefaultTenant is used by single-tenant deployments and unit tests.
const DefaultTenant = "default"

// WithTenant returns a context carrying the tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// FromContext returns the tenant id on the context, or DefaultTenant when the
// request was not routed through the tenancy middleware (tests, workers).
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultTenant
}
