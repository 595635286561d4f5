package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/constraints"
)

func TestObserver_RecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg, "govalid")
	v := constraints.NewValidator(govalid.WithObserver(obs))
	ctx := context.Background()

	_, err := v.Validate(ctx, "", govalid.Constraints(constraints.MustNotBlank(nil)))
	require.NoError(t, err)
	_, err = v.Validate(ctx, "ok", govalid.Constraints(constraints.MustNotBlank(nil)))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.runs.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.runs.WithLabelValues(OutcomeValid)))
	assert.Equal(t, 2.0, testutil.ToFloat64(obs.dispatches.WithLabelValues(string(constraints.KindNotBlank))))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.violations.WithLabelValues(govalid.CodeIsBlank)))
	assert.Equal(t, 1, testutil.CollectAndCount(obs.duration))
	assert.Equal(t, uint64(2), durationSamples(t, reg, "govalid_validation_duration_seconds"))
}

// durationSamples returns the sample count of the named histogram.
func durationSamples(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		return mf.GetMetric()[0].GetHistogram().GetSampleCount()
	}
	t.Fatalf("histogram %s not gathered", name)
	return 0
}

func TestObserver_UnexpectedValuesAndFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg, "")

	obs.ObserveRun(govalid.RunStats{
		Duration:         time.Millisecond,
		UnexpectedValues: 2,
		SkippedObjects:   1,
		SequenceAborts:   3,
		Failed:           true,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.runs.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(obs.unexpected))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.skipped))
	assert.Equal(t, 3.0, testutil.ToFloat64(obs.aborts))

	expected := `
# HELP sequence_aborts_total Total number of group sequences stopped after a failing step
# TYPE sequence_aborts_total counter
sequence_aborts_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "sequence_aborts_total"))
}
