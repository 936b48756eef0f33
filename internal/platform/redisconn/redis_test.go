package redisconn

import (
	"context"
	"testing"

	"github.com/MrEthical07/credvault/internal/platform/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPings(t *testing.T) {
	mr := miniredis.RunT(t)

	var cfg config.Config
	cfg.Redis.Addr = mr.Addr()

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	var cfg config.Config
	cfg.Redis.Addr = addr

	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
