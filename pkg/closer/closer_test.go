package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseLIFO(t *testing.T) {
	c := NewCloser(0)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"db", "redis", "http"} {
		c.Add(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"http", "redis", "db"}, order)
}

func TestCloseCollectsErrors(t *testing.T) {
	c := NewCloser(time.Second)
	c.Add("db", func(context.Context) error { return errors.New("pool busy") })
	c.Add("redis", func(context.Context) error { return nil })

	err := c.Close(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: pool busy")
}

func TestCloseOnce(t *testing.T) {
	c := NewCloser(time.Second)
	calls := 0
	c.Add("db", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestCloseForcedAfterTimeout(t *testing.T) {
	c := NewCloser(time.Second)

	forced := make(chan struct{}, 1)
	c.Add("db", func(ctx context.Context) error {
		select {
		case forced <- struct{}{}:
		default:
		}
		return nil
	})
	c.Add("stuck", func(context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return errors.New("slow")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "0/2 resources closed gracefully")
	assert.Contains(t, err.Error(), "[FORCED] stuck: slow")
	assert.Len(t, forced, 1)
}
