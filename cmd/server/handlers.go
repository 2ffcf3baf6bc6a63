package main

import (
	"encoding/json"
	"net/http"

	"portfolio-dashboard-go/internal/config"
	"portfolio-dashboard-go/internal/models"
	"portfolio-dashboard-go/internal/refresh"
	"portfolio-dashboard-go/internal/store"
	"portfolio-dashboard-go/internal/valuation"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the dashboard API endpoints.
type APIHandler struct {
	log   *zap.Logger
	db    *gorm.DB
	cfg   *config.Config
	cache *refresh.Cache
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB, cfg *config.Config, cache *refresh.Cache) *APIHandler {
	return &APIHandler{log: log, db: db, cfg: cfg, cache: cache}
}

// accounts resolves the enabled accounts the request addresses; the optional
// ?account= query parameter narrows the view to one of them.
func (h *APIHandler) accounts(r *http.Request) ([]models.Account, error) {
	query := h.db.Where("enabled = ?", true)
	if name := r.URL.Query().Get("account"); name != "" {
		query = query.Where("name = ?", name)
	}
	var accounts []models.Account
	if err := query.Order("id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// engineFor builds a valuation engine over one account's stored data.
func (h *APIHandler) engineFor(accountID uint) *valuation.Engine {
	st := store.New(h.db, h.log, accountID)
	deps := valuation.Dependencies{
		Ledger:  st,
		Quotes:  st,
		Actions: st,
		FX:      store.NewConverter(h.db, h.log),
		Cash:    st,
		Catalog: st,
	}
	return valuation.NewEngine(h.log, h.cfg.Valuation.BaseCurrency, deps)
}

// PortfolioHandler returns the merged portfolio entries across accounts.
func (h *APIHandler) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts(r)
	if err != nil {
		h.log.Error("Failed to list accounts", zap.Error(err))
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	lists := make([][]valuation.PortfolioEntry, 0, len(accounts))
	for _, account := range accounts {
		entries, ok := h.cache.Portfolio(account.ID)
		if !ok {
			entries, err = h.engineFor(account.ID).Portfolio()
			if err != nil {
				h.log.Error("Failed to compute portfolio",
					zap.String("account", account.Name), zap.Error(err))
				http.Error(w, "Failed to compute portfolio", http.StatusInternalServerError)
				return
			}
			h.cache.SetPortfolio(account.ID, entries)
		}
		lists = append(lists, entries)
	}

	respondJSON(w, h.log, valuation.MergePortfolios(lists...))
}

// TotalHandler returns the merged whole-portfolio summary.
func (h *APIHandler) TotalHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts(r)
	if err != nil {
		h.log.Error("Failed to list accounts", zap.Error(err))
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	totals := make([]valuation.TotalSummary, 0, len(accounts))
	for _, account := range accounts {
		total, ok := h.cache.Total(account.ID)
		if !ok {
			total, err = h.engineFor(account.ID).PortfolioTotal()
			if err != nil {
				h.log.Error("Failed to compute portfolio total",
					zap.String("account", account.Name), zap.Error(err))
				http.Error(w, "Failed to compute portfolio total", http.StatusInternalServerError)
				return
			}
			h.cache.SetTotal(account.ID, total)
		}
		totals = append(totals, total)
	}

	respondJSON(w, h.log, valuation.MergeTotals(totals...))
}

// HistoryHandler returns the merged daily portfolio value series.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts(r)
	if err != nil {
		h.log.Error("Failed to list accounts", zap.Error(err))
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	series := make([][]valuation.DailyValue, 0, len(accounts))
	for _, account := range accounts {
		history, ok := h.cache.History(account.ID)
		if !ok {
			history, err = h.engineFor(account.ID).HistoricalValue()
			if err != nil {
				h.log.Error("Failed to compute historical value",
					zap.String("account", account.Name), zap.Error(err))
				http.Error(w, "Failed to compute historical value", http.StatusInternalServerError)
				return
			}
			h.cache.SetHistory(account.ID, history)
		}
		series = append(series, history)
	}

	respondJSON(w, h.log, valuation.MergeHistories(series...))
}

// AccountsHandler lists the configured accounts.
func (h *APIHandler) AccountsHandler(w http.ResponseWriter, r *http.Request) {
	var accounts []models.Account
	if err := h.db.Order("id").Find(&accounts).Error; err != nil {
		h.log.Error("Failed to list accounts", zap.Error(err))
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	type accountView struct {
		Name    string `json:"name"`
		Broker  string `json:"broker"`
		Enabled bool   `json:"enabled"`
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView{Name: a.Name, Broker: a.Broker, Enabled: a.Enabled})
	}
	respondJSON(w, h.log, views)
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, log *zap.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}
