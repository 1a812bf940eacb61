package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

func TestNewBackendLifecycle(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	ctx := context.Background()
	require.NoError(t, b.Ping(ctx))
	items, err := b.Fetch(ctx, types.Filter{})
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, b.Detach())
	assert.ErrorIs(t, b.Ping(ctx), types.ErrDetached)
}
