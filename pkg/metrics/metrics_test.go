package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestNewRecorderRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.ObserveOperation("Put", nil, 5*time.Millisecond)
	rec.SetKeysTracked(3)
	rec.SetReclaimableBytes(128)
	rec.SetSegmentCount(2)
	rec.ObserveCompaction(errors.New("boom"))

	assert.EqualValues(t, 3, gaugeValue(t, rec.keysTracked))
	assert.EqualValues(t, 128, gaugeValue(t, rec.reclaimableBytes))
	assert.EqualValues(t, 2, gaugeValue(t, rec.segmentCount))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder

	assert.NotPanics(t, func() {
		rec.ObserveOperation("Get", nil, time.Millisecond)
		rec.SetKeysTracked(1)
		rec.SetReclaimableBytes(1)
		rec.SetSegmentCount(1)
		rec.ObserveCompaction(nil)
	})
}
