package chain

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/metrics"
)

var healthTestTime = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

func TestHealthCheckerRunOnce(t *testing.T) {
	good := &scriptedAdapter{endpoint: "https://a.example.com", head: 42}
	bad := &scriptedAdapter{endpoint: "https://b.example.com", probeErr: errors.New("connection refused")}
	pools := &Pools{byChainID: map[uint64]*Pool{
		1: newScriptedPool(poolChain(1, 1), good, bad),
	}}

	h := NewHealthChecker(pools, metrics.New(), time2.NewMockClock(healthTestTime), time.Minute, time.Second)

	// 未探测过的端点按不健康报告，检查时间为零值
	snapshot := h.Snapshot()
	require.Len(t, snapshot, 2)
	for _, endpoint := range snapshot {
		assert.False(t, endpoint.Healthy)
		assert.True(t, endpoint.CheckedAt.IsZero())
	}
	assert.False(t, h.Healthy())

	err := h.RunOnce(context.Background())
	require.Error(t, err, "a failing probe must surface")
	assert.Contains(t, err.Error(), "b.example.com")

	snapshot = h.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "https://a.example.com", snapshot[0].Endpoint)
	assert.True(t, snapshot[0].Healthy)
	assert.Equal(t, uint64(42), snapshot[0].Head)
	assert.Equal(t, healthTestTime, snapshot[0].CheckedAt)

	assert.Equal(t, "https://b.example.com", snapshot[1].Endpoint)
	assert.False(t, snapshot[1].Healthy)
	assert.Contains(t, snapshot[1].Err, "connection refused")

	// 每条链只要还有一个健康端点就算整体健康
	assert.True(t, h.Healthy())
}

func TestHealthCheckerUnhealthyChainGated(t *testing.T) {
	pools := &Pools{byChainID: map[uint64]*Pool{
		1: newScriptedPool(poolChain(1, 1), &scriptedAdapter{endpoint: "https://a.example.com", head: 7}),
		2: newScriptedPool(config.Chain{ID: 2, Kind: config.ChainKindTON}, &scriptedAdapter{
			endpoint: "https://b.example.com",
			probeErr: errors.New("410 gone"),
		}),
	}}

	h := NewHealthChecker(pools, metrics.New(), time2.NewMockClock(healthTestTime), time.Minute, time.Second)

	err := h.RunOnce(context.Background())
	require.Error(t, err)

	assert.False(t, h.Healthy(), "a chain with no healthy endpoint marks the whole set degraded")
}
