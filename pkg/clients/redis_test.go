package clients

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-categories/internal/cfg"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClientPing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(&cfg.RedisCfg{Addr: mr.Addr(), DialTimeout: time.Second, Timeout: time.Second})

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close(context.Background()))
}

func TestRedisClientPingUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := NewRedisClient(&cfg.RedisCfg{Addr: addr, DialTimeout: 100 * time.Millisecond, Timeout: 100 * time.Millisecond})
	defer client.Close(context.Background())

	assert.Error(t, client.Ping(context.Background()))
}
