package cmdutil

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type metricsConfig struct {
	listenAddr string
}

var metricsCfg = metricsConfig{}

var (
	TablesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ddlmodel",
		Name:      "tables_parsed_total",
		Help:      "Number of tables parsed from authoritative DDL.",
	})
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ddlmodel",
		Name:      "parse_errors_total",
		Help:      "Number of DDL statements that failed to parse.",
	})
	ModelsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ddlmodel",
		Name:      "models_written_total",
		Help:      "Number of models handled by the generator, by outcome.",
	}, []string{"outcome"})
	Discrepancies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ddlmodel",
		Name:      "discrepancies_total",
		Help:      "Number of discrepancies found by validation, by kind.",
	}, []string{"kind"})
)

func RegisterMetricsFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&metricsCfg.listenAddr,
		"metrics-listen-addr",
		metricsCfg.listenAddr,
		"Address for the metrics endpoint to listen to (disabled when empty).",
	)
}

func MetricsServer(logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, "OK"); err != nil {
			logger.Err(err).Msgf("error writing to healthz")
		}
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// RunMetricsServer serves metrics in the background if an address is set.
func RunMetricsServer(logger zerolog.Logger) {
	if metricsCfg.listenAddr == "" {
		return
	}
	go func() {
		logger.Debug().Str("listen-addr", metricsCfg.listenAddr).Msgf("serving metrics")
		m := MetricsServer(logger)
		if err := http.ListenAndServe(metricsCfg.listenAddr, m); err != nil {
			logger.Err(err).Msgf("error exposing metrics endpoints")
		}
	}()
}
