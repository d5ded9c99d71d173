package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"retail_sales/internal/sales"
)

type fakeRedis struct {
	channel string
	payload []byte
	err     error
	closed  bool
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return goredis.NewIntResult(1, f.err)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisPublisher_PublishesJSON(t *testing.T) {
	rdb := &fakeRedis{}
	p := newRedisPublisher(rdb, "sales.created", zaptest.NewLogger(t))

	when := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.Publish(context.Background(), sales.SaleCreated{
		SaleID:   "0b6a4f2e-8a59-4b53-9f0b-0c3b8d1e2f10",
		Customer: "Company ABC",
		SaleDate: when,
	})
	require.NoError(t, err)

	assert.Equal(t, "sales.created", rdb.channel)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rdb.payload, &got))
	assert.Equal(t, "0b6a4f2e-8a59-4b53-9f0b-0c3b8d1e2f10", got["sale_id"])
	assert.Equal(t, "Company ABC", got["customer"])
	assert.Equal(t, "2025-01-02T03:04:05Z", got["sale_date"])
}

func TestRedisPublisher_PropagatesError(t *testing.T) {
	boom := errors.New("redis down")
	p := newRedisPublisher(&fakeRedis{err: boom}, "sales.created", nil)

	err := p.Publish(context.Background(), sales.SaleCreated{SaleID: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestRedisPublisher_Close(t *testing.T) {
	rdb := &fakeRedis{}
	p := newRedisPublisher(rdb, "sales.created", nil)
	require.NoError(t, p.Close())
	assert.True(t, rdb.closed)

	var nilPublisher *RedisPublisher
	assert.NoError(t, nilPublisher.Close())
}

func TestNewRedisPublisher_RequiresAddress(t *testing.T) {
	_, err := NewRedisPublisher("", "sales.created", nil)
	assert.Error(t, err)
}

func TestRedisPublisher_ServesAsSalesPublisher(t *testing.T) {
	var _ sales.Publisher = newRedisPublisher(&fakeRedis{}, "c", nil)
}
