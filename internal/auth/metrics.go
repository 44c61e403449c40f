package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	signInTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "tenantgate",
		Subsystem: "auth",
		Name:      "sign_in_total",
		Help:      "Number of sign-in attempts by method and result.",
	}, []string{"method", "result"})

	emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "tenantgate",
		Subsystem: "auth",
		Name:      "emails_total",
		Help:      "Number of transactional emails handed to the mail hooks by kind and result.",
	}, []string{"kind", "result"})
)

func result(err error) string {
	if err != nil {
		return resultFailure
	}

	return resultSuccess
}

func countSignIn(method string, err error) {
	signInTotal.WithLabelValues(method, result(err)).Inc()
}

func countEmail(kind string, err error) {
	emailsTotal.WithLabelValues(kind, result(err)).Inc()
}
