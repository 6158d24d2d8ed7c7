// Package web exposes the backtest reporting API over HTTP.
package web

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/backtest"
	"github.com/melon/backtest_engine/internal/domain"
)

// Store is the storage surface the API reads from.
type Store interface {
	domain.HistoryProvider
	domain.TradeRepository
	ListSymbols(ctx context.Context) ([]string, error)
}

type Server struct {
	router *http.ServeMux
	server *http.Server
	store  Store
	runner *backtest.Runner
	cfg    backtest.Config
	params backtest.StrategyParams
	logger *zap.Logger
}

func NewServer(
	port int,
	store Store,
	runner *backtest.Runner,
	cfg backtest.Config,
	params backtest.StrategyParams,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router: http.NewServeMux(),
		store:  store,
		runner: runner,
		cfg:    cfg,
		params: params,
		logger: logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /status", s.handleStatus)

	s.router.HandleFunc("GET /api/symbols", s.handleSymbols)
	s.router.HandleFunc("GET /api/candles", s.handleCandles)
	s.router.HandleFunc("GET /api/trades", s.handleTrades)

	s.router.HandleFunc("POST /api/backtest", s.handleBacktest)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
