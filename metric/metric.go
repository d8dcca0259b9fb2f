package metric

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/app"
	"github.com/hldb/welo-sub001/app/logger"
)

const CName = "welo.metric"

var log = logger.NewNamed(CName)

type Config struct {
	// Addr of the /metrics endpoint, empty disables it
	Addr string `yaml:"addr"`
}

type configGetter interface {
	GetMetric() Config
}

func New() Metric {
	return new(metric)
}

type Metric interface {
	Registry() *prometheus.Registry
	app.ComponentRunnable
}

type metric struct {
	registry *prometheus.Registry
	config   Config
	server   *http.Server
}

func (m *metric) Init(a *app.App) (err error) {
	m.registry = prometheus.NewRegistry()
	m.config = a.MustComponent("config").(configGetter).GetMetric()
	return nil
}

func (m *metric) Name() string {
	return CName
}

func (m *metric) Run(ctx context.Context) (err error) {
	if err = m.registry.Register(collectors.NewBuildInfoCollector()); err != nil {
		return err
	}
	if err = m.registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err = m.registry.Register(newVersionCollector()); err != nil {
		return err
	}
	if m.config.Addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{Addr: m.config.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.server.ListenAndServe()
	}()
	select {
	case err = <-errCh:
	case <-time.After(time.Second / 5):
		log.Info("metrics endpoint started", zap.String("addr", m.config.Addr))
	}
	return
}

func (m *metric) Registry() *prometheus.Registry {
	return m.registry
}

func (m *metric) Close(ctx context.Context) (err error) {
	if m.server == nil {
		return nil
	}
	if err = m.server.Shutdown(ctx); errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
