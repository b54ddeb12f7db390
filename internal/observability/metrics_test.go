package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_RegistersCleanly(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewPedanticRegistry()

	require.NoError(t, reg.Register(m.Polls))
	require.NoError(t, reg.Register(m.FragmentsSkipped))
	require.NoError(t, reg.Register(m.StationsDepleted))

	m.Polls.WithLabelValues("success").Inc()
	m.FragmentsSkipped.WithLabelValues("saldo").Add(2)
	m.StationsDepleted.Set(3)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Polls.WithLabelValues("success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.FragmentsSkipped.WithLabelValues("saldo")), 0)
	assert.Equal(t, 3, testutil.CollectAndCount(reg))
}

func TestMetricNames(t *testing.T) {
	m := NewMetricsForTesting()
	m.RecordsWritten.Add(6)

	const want = `
# HELP fuel_stock_records_written_total Station records handed to the sinks successfully.
# TYPE fuel_stock_records_written_total counter
fuel_stock_records_written_total 6
`
	require.NoError(t, testutil.CollectAndCompare(m.RecordsWritten, strings.NewReader(want)))
}
