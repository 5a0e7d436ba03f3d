package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"default", DefaultLogConfig(), false},
		{"development", LogConfig{Level: "debug", Development: true}, false},
		{"empty level", LogConfig{}, false},
		{"bad level", LogConfig{Level: "loud"}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewLogger(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}

	assert.NotNil(t, NewDefaultLogger())
}

func TestMetrics_Observer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Submitted("parse")
	m.Submitted("parse")
	m.Processed("parse", 0, time.Millisecond)
	m.Failed("parse", 1, errors.New("boom"))
	m.Discarded("sum")
	m.Pending("parse", 3)
	m.Capacity("parse", 1024)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submitted.WithLabelValues("parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processed.WithLabelValues("parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed.WithLabelValues("parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.discarded.WithLabelValues("sum")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pending.WithLabelValues("parse")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.capacity.WithLabelValues("parse")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "ringrail_items_submitted_total")
	assert.Contains(t, names, "ringrail_processing_duration_seconds")
	assert.Contains(t, names, "ringrail_ring_capacity")
}

func TestProgressLogger_Throttles(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	progress := ProgressLogger(zap.New(core), time.Hour)

	for i := int64(1); i <= 100; i++ {
		progress("a", i)
		progress("b", i)
	}

	entries := logs.FilterMessage("progress").All()
	require.Len(t, entries, 2)
	assert.EqualValues(t, 1, entries[0].ContextMap()["processed"])
	assert.EqualValues(t, 1, entries[1].ContextMap()["processed"])
}
