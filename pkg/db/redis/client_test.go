package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbredis "notekeeper/pkg/db/redis"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	t.Run("connects to running server", func(t *testing.T) {
		srv := miniredis.RunT(t)

		client, err := dbredis.NewClient(ctx, dbredis.Options{Addr: srv.Addr(), Timeout: time.Second})
		require.NoError(t, err)
		defer client.Close()

		require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
		got, err := srv.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("fails when server is unreachable", func(t *testing.T) {
		srv := miniredis.RunT(t)
		addr := srv.Addr()
		srv.Close()

		client, err := dbredis.NewClient(ctx, dbredis.Options{Addr: addr, Timeout: 200 * time.Millisecond})
		require.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "failed to connect to redis")
	})
}
