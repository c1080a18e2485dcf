package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextDefaults(t *testing.T) {
	assert.Equal(t, DefaultTenant, FromContext(context.Background()))
}

func TestWithTenantRoundTrip(t *testing.T) {
	ctx := WithTenant(context.Background(), "valparaiso")
	assert.Equal(t, "valparaiso", FromContext(ctx))
}

func TestEmptyTenantFallsBack(t *testing.T) {
	ctx := WithTenant(context.Background(), "")
	assert.Equal(t, DefaultTenant, FromContext(ctx))
}
