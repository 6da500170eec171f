package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain(t *testing.T) {
	cases := []struct {
		endpoint string
		want     string
	}{
		// API key 在路径里，标签只留两段域名
		{"https://eth-mainnet.g.alchemy.com/v2/supersecretkey", "alchemy.com"},
		{"https://rpc.ankr.com/eth", "ankr.com"},
		{"https://toncenter.com/api/v2/jsonRPC", "toncenter.com"},
		{"https://localhost:8080", "localhost"},
		{"http://127.0.0.1:8545", "127.0.0.1"},
		{"://broken", "invalid"},
		{"not a url", "invalid"},
		{"", "invalid"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Domain(tc.endpoint), "endpoint %q", tc.endpoint)
	}
}

func TestServiceCounters(t *testing.T) {
	m := New()

	m.IncVerdict(1, "authorized", "")
	m.IncVerdict(1, "authorized", "")
	m.IncVerdict(0, "rejected", "malformed_request")
	m.IncReplay(1)
	m.IncLeaseContention()
	m.IncRecordConflict()
	m.IncEndpointError(1, "https://rpc.ankr.com/eth", "transient")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.verdictTotal.WithLabelValues("1", "authorized", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdictTotal.WithLabelValues("0", "rejected", "malformed_request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replayTotal.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.leaseContention))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.endpointErrors.WithLabelValues("1", "ankr.com", "transient")))
}

func TestServiceEndpointGauge(t *testing.T) {
	m := New()

	m.SetEndpointUp(900, "https://api.mainnet-beta.solana.com", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.endpointUp.WithLabelValues("900", "solana.com")))

	m.SetEndpointUp(900, "https://api.mainnet-beta.solana.com", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.endpointUp.WithLabelValues("900", "solana.com")))
}

func TestServiceHistograms(t *testing.T) {
	m := New()

	m.ObserveVerify(1, "authorized", 120*time.Millisecond)
	m.ObserveFetch(1, "https://rpc.ankr.com/eth", 50*time.Millisecond)

	require.Equal(t, 1, testutil.CollectAndCount(m.verifyDuration))
	require.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}
