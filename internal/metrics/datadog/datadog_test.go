package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryetl/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	_, err := NewBackend(Config{})
	assert.ErrorContains(t, err, "Addr is required")
}

func TestTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, tags(nil))
	assert.Equal(t, []string{"job:j", "status:success", "step:join"},
		tags(metrics.Labels{"step": "join", "job": "j", "status": "success"}))
}

func TestBackend_SendsHistogram(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), GlobalTags: []string{"env:test"}})
	require.NoError(t, err)
	defer b.Close()

	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "join", "status": "success"})
	require.NoError(t, b.Flush())

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 4096)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	got := string(buf[:n])
	assert.True(t, strings.HasPrefix(got, "salary_etl.etl_step_duration_seconds:0.25|h"), got)
	assert.Contains(t, got, "env:test")
	assert.Contains(t, got, "step:join")
}
