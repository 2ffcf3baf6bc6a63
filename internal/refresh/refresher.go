package refresh

import (
	"errors"
	"fmt"
	"time"

	"portfolio-dashboard-go/internal/broker"
	"portfolio-dashboard-go/internal/models"
	"portfolio-dashboard-go/internal/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Refresher periodically imports broker data into the local database and
// invalidates the cached valuations of refreshed accounts. Upstream
// connectivity failures stay inside the refresher: the valuation engine only
// ever sees the last successfully imported snapshot.
type Refresher struct {
	logger       *zap.Logger
	db           *gorm.DB
	baseCurrency string
	schedule     string
	clients      map[uint]broker.Client // keyed by account row ID
	cache        *Cache
	cron         *cron.Cron
}

// New creates a refresher for the given per-account broker clients.
func New(logger *zap.Logger, db *gorm.DB, baseCurrency, schedule string, clients map[uint]broker.Client, cache *Cache) *Refresher {
	return &Refresher{
		logger:       logger.Named("refresher"),
		db:           db,
		baseCurrency: baseCurrency,
		schedule:     schedule,
		clients:      clients,
		cache:        cache,
		cron:         cron.New(),
	}
}

// Start schedules periodic refreshes.
func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.RefreshAll); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	r.logger.Info("Refresh scheduled", zap.String("schedule", r.schedule))
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RefreshAll refreshes every configured account. One failing account does not
// stop the others.
func (r *Refresher) RefreshAll() {
	for accountID, client := range r.clients {
		if err := r.refreshAccount(accountID, client); err != nil {
			r.logger.Error("Account refresh failed",
				zap.Uint("account_id", accountID), zap.Error(err))
		}
	}
}

func (r *Refresher) refreshAccount(accountID uint, client broker.Client) error {
	batch := models.ImportBatch{
		UUID:      uuid.NewString(),
		AccountID: accountID,
		StartedAt: time.Now(),
	}
	if err := r.db.Create(&batch).Error; err != nil {
		return fmt.Errorf("could not create import batch: %w", err)
	}

	l := r.logger.With(zap.Uint("account_id", accountID), zap.String("batch", batch.UUID))
	l.Info("Starting broker data import")

	records, err := r.importAccount(accountID, client)

	batch.FinishedAt = time.Now()
	batch.Records = records
	batch.Succeeded = err == nil
	if saveErr := r.db.Save(&batch).Error; saveErr != nil {
		l.Error("Could not finalize import batch", zap.Error(saveErr))
	}
	if err != nil {
		return err
	}

	r.cache.Invalidate(accountID)
	l.Info("Broker data import finished", zap.Int("records", records))
	return nil
}

// lastImportTime returns the start of the most recent successful import, so
// incremental pulls only fetch data newer than what is already stored. The
// upserts are idempotent, so a generous overlap is harmless.
func (r *Refresher) lastImportTime(accountID uint) time.Time {
	var last models.ImportBatch
	err := r.db.Where("account_id = ? AND succeeded = ?", accountID, true).
		Order("started_at desc").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}
	}
	if err != nil {
		r.logger.Warn("Could not determine last import time, fetching everything", zap.Error(err))
		return time.Time{}
	}
	return last.StartedAt.AddDate(0, 0, -3)
}

func (r *Refresher) importAccount(accountID uint, client broker.Client) (int, error) {
	st := store.New(r.db, r.logger, accountID)
	since := r.lastImportTime(accountID)
	records := 0

	products, err := client.GetProducts()
	if err != nil {
		return records, fmt.Errorf("could not fetch products: %w", err)
	}

	productIDs := make(map[string]uint, len(products)) // external ID -> row ID
	symbols := make(map[string]struct{})
	currencies := make(map[string]struct{})
	for _, p := range products {
		id, err := st.UpsertProduct(models.Product{
			ExternalID: p.ID,
			Symbol:     p.Symbol,
			ISIN:       p.ISIN,
			Name:       p.Name,
			Currency:   p.Currency,
			Exchange:   p.Exchange,
			Sector:     p.Sector,
			Industry:   p.Industry,
			Country:    p.Country,
			Tradable:   p.Tradable,
		})
		if err != nil {
			return records, err
		}
		records++
		productIDs[p.ID] = id
		if p.Symbol != "" {
			symbols[p.Symbol] = struct{}{}
		}
		if p.Currency != "" && p.Currency != r.baseCurrency {
			currencies[p.Currency] = struct{}{}
		}
	}

	txns, err := client.GetTransactions(since)
	if err != nil {
		return records, fmt.Errorf("could not fetch transactions: %w", err)
	}
	for _, t := range txns {
		productID, ok := productIDs[t.ProductID]
		if !ok {
			r.logger.Warn("Transaction references unknown product, skipping",
				zap.String("product", t.ProductID), zap.String("order", t.OrderID))
			continue
		}
		err := st.UpsertTransaction(models.Transaction{
			ProductID: productID,
			OrderID:   t.OrderID,
			Timestamp: t.Timestamp,
			Date:      t.Timestamp,
			Quantity:  t.Quantity,
			Price:     t.Price,
			Fees:      t.Fees,
			Currency:  t.Currency,
		})
		if err != nil {
			return records, err
		}
		records++
	}

	movements, err := client.GetCashMovements(since)
	if err != nil {
		return records, fmt.Errorf("could not fetch cash movements: %w", err)
	}
	for _, m := range movements {
		err := st.UpsertCashMovement(models.CashMovement{
			Reference: m.Reference,
			Date:      m.Date,
			Kind:      m.Kind,
			Amount:    m.Amount,
		})
		if err != nil {
			return records, err
		}
		records++
	}

	for _, p := range products {
		quotes, err := client.GetQuotes(p.ID, since)
		if err != nil {
			// Missing quotes for one product degrade that product's valuation
			// only; the rest of the import continues.
			r.logger.Warn("Could not fetch quotes",
				zap.String("symbol", p.Symbol), zap.Error(err))
			continue
		}
		for _, q := range quotes {
			if err := st.UpsertQuote(productIDs[p.ID], q.Date, q.Close); err != nil {
				return records, err
			}
			records++
		}
	}

	for symbol := range symbols {
		splits, err := client.GetSplits(symbol)
		if err != nil {
			r.logger.Warn("Could not fetch splits",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		for _, sp := range splits {
			if err := st.UpsertSplit(sp.Symbol, sp.Date, sp.Ratio); err != nil {
				return records, err
			}
			records++
		}
	}

	for currency := range currencies {
		rates, err := client.GetFxRates(currency, r.baseCurrency, since)
		if err != nil {
			r.logger.Warn("Could not fetch fx rates",
				zap.String("currency", currency), zap.Error(err))
			continue
		}
		for _, rt := range rates {
			if err := st.UpsertFxRate(rt.Date, rt.From, rt.To, rt.Rate); err != nil {
				return records, err
			}
			records++
		}
	}

	return records, nil
}
