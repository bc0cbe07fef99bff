package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide collectors, registered once on the default registry and
// exposed on GET /metrics.
var (
	VendasRegistradas = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unython_vendas_registradas_total",
		Help: "Sales committed.",
	})

	VendasRejeitadas = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unython_vendas_rejeitadas_total",
		Help: "Sales not committed, by reason.",
	}, []string{"motivo"})

	ValorVendido = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unython_valor_vendido_total",
		Help: "Sum of committed sale totals.",
	})

	DuracaoVenda = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unython_venda_duracao_segundos",
		Help:    "RegisterSale latency, including the stock check.",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unython_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuracao = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unython_http_request_duracao_segundos",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	JobsProcessados = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unython_jobs_processados_total",
		Help: "Background jobs by queue and outcome (ok, dlq).",
	}, []string{"queue", "resultado"})
)
