package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func getCounterValue(counter prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		return 0
	}
	if metric.Counter != nil {
		return metric.Counter.GetValue()
	}
	return 0
}

func TestRecordAuthSuccess(t *testing.T) {
	initialAttempts := getCounterValue(AuthAttemptsTotal.WithLabelValues("password", "success"))
	initialIssued := getCounterValue(SessionsIssuedTotal)

	RecordAuthSuccess("password")

	assert.Greater(t, getCounterValue(AuthAttemptsTotal.WithLabelValues("password", "success")), initialAttempts)
	assert.Greater(t, getCounterValue(SessionsIssuedTotal), initialIssued)
}

func TestRecordAuthFailure(t *testing.T) {
	initialAttempts := getCounterValue(AuthAttemptsTotal.WithLabelValues("password", "failure"))
	initialFailures := getCounterValue(AuthFailuresTotal.WithLabelValues("password", "invalid_credentials"))

	RecordAuthFailure("password", "invalid_credentials")

	assert.Greater(t, getCounterValue(AuthAttemptsTotal.WithLabelValues("password", "failure")), initialAttempts)
	assert.Greater(t, getCounterValue(AuthFailuresTotal.WithLabelValues("password", "invalid_credentials")), initialFailures)
}

func TestRecordSessionRevoked(t *testing.T) {
	initial := getCounterValue(SessionsRevokedTotal)
	RecordSessionRevoked()
	assert.Greater(t, getCounterValue(SessionsRevokedTotal), initial)
}

func TestRecordIdentityLookup(t *testing.T) {
	initial := getCounterValue(IdentityLookupsTotal.WithLabelValues("unauthenticated"))
	RecordIdentityLookup("unauthenticated")
	assert.Greater(t, getCounterValue(IdentityLookupsTotal.WithLabelValues("unauthenticated")), initial)
}
