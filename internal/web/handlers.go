package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/melon/backtest_engine/internal/domain"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.ListSymbols(r.Context())
	if err != nil {
		s.logger.Error("Failed to list symbols", zap.Error(err))
		http.Error(w, "Failed to list symbols", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, symbols)
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", 200)

	series, err := s.store.LoadSeries(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) || errors.Is(err, domain.ErrNoHistory) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("Failed to load series", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, "Failed to load series", http.StatusInternalServerError)
		return
	}

	bars := series.Bars
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	writeJSON(w, s.logger, bars)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.store.ListTrades(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, trades)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	params := s.params
	if name := r.URL.Query().Get("strategy"); name != "" {
		params.Name = name
	}

	report, err := s.runner.RunSymbol(r.Context(), symbol, s.cfg, params)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAssetNotFound), errors.Is(err, domain.ErrNoHistory):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrInsufficientData):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			s.logger.Error("Backtest failed", zap.String("symbol", symbol), zap.Error(err))
			http.Error(w, "Backtest failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, s.logger, report)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
