package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-testreport/metrics"
)

const (
	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"

	DefaultServeAddr = "0.0.0.0:8080"
)

// Service runs the optional HTTP servers next to a report run
type Service struct {
	Report      *ReportServer
	Metrics     *MetricsServer
	ReportAddr  string
	MetricsAddr string
	log         log.Logger
}

func New(logger log.Logger, report *ReportServer, reportAddr, metricsAddr string) *Service {
	if logger == nil {
		logger = log.Root()
	}
	return &Service{
		Report:      report,
		Metrics:     &MetricsServer{},
		ReportAddr:  reportAddr,
		MetricsAddr: metricsAddr,
		log:         logger,
	}
}

func (s *Service) Start(ctx context.Context) {
	s.log.Info("service starting")

	if s.Report != nil && s.ReportAddr != "" {
		go func() {
			s.log.Info("starting report server", "addr", s.ReportAddr)
			if err := s.Report.Start(ctx, s.ReportAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting report server", "err", err)
				metrics.RecordErrorDetails("error starting report server", err)
			}
		}()
	}

	if s.MetricsAddr != "" {
		go func() {
			s.log.Info("starting metrics server", "addr", s.MetricsAddr)
			if err := s.Metrics.Start(ctx, s.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	s.log.Info("service started")
}

func (s *Service) Shutdown() {
	s.log.Info("service shutting down")

	if s.Report != nil {
		_ = s.Report.Shutdown()
		s.log.Info("report server stopped")
	}

	_ = s.Metrics.Shutdown()
	s.log.Info("metrics stopped")

	s.log.Info("service stopped")
}
