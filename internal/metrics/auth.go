package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del flujo de autenticación. Paquete standalone para
// evitar ciclos de import entre middlewares, services y email.

var (
	BearerAuthTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_bearer_auth_total",
		Help: "Autenticaciones bearer por resultado (ok o razón de falla)",
	}, []string{"result"})

	LoginCodesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authgate_login_codes_issued_total",
		Help: "Challenges de login creados",
	})

	LoginCodeVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_login_code_verifications_total",
		Help: "Verificaciones de código por resultado (ok, mismatch, inactive)",
	}, []string{"result"})

	EmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authgate_emails_sent_total",
		Help: "Correos de código de login enviados",
	})

	EmailsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authgate_emails_failed_total",
		Help: "Correos de código de login con error de envío",
	})

	IPAllowlistAnomalies = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authgate_ip_allowlist_anomalies_total",
		Help: "Requests con allow-list configurada pero IP de origen indeterminable",
	})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authgate_http_request_duration_ms",
		Help:    "Duración de requests HTTP en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"method", "status"})
)

// RegisterAll registra las métricas en el registry dado (o el default si nil).
func RegisterAll(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		BearerAuthTotal,
		LoginCodesIssued,
		LoginCodeVerifications,
		EmailsSent,
		EmailsFailed,
		IPAllowlistAnomalies,
		HTTPDuration,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
