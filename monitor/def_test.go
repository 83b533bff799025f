package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsUsableBeforeStartMon(t *testing.T) {
	t.Run("process gauges sample without registration", func(t *testing.T) {
		GotPID()
		require.NotPanics(t, CheckProcessInfo)
		assert.GreaterOrEqual(t, testutil.ToFloat64(memUsage), 0.0)
		assert.GreaterOrEqual(t, testutil.ToFloat64(cpuUsage), 0.0)
	})

	t.Run("service counters accumulate", func(t *testing.T) {
		before := testutil.ToFloat64(ImagesProcessed)
		ImagesProcessed.Inc()
		DetectionsFound.Add(3)
		assert.Equal(t, before+1, testutil.ToFloat64(ImagesProcessed))
		assert.GreaterOrEqual(t, testutil.ToFloat64(DetectionsFound), 3.0)
	})
}
