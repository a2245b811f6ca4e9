package repository

import (
	"database/sql"
	"sync"
	"time"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
)

type ConfigRepositoryInterface interface {
	ActiveConfig() (*model.DeliveryConfig, error)
	Update(cfg *model.DeliveryConfig) error
}

// ConfigRepository owns the single-active-row delivery configuration. The
// active row is cached in memory; the cache is reloaded after every
// successful update so readers never observe a stale or doubled config.
type ConfigRepository struct {
	DB *sql.DB

	mu     sync.RWMutex
	cached *model.DeliveryConfig
}

func (r *ConfigRepository) ActiveConfig() (*model.DeliveryConfig, error) {
	r.mu.RLock()
	if r.cached != nil {
		cfg := *r.cached
		r.mu.RUnlock()
		return &cfg, nil
	}
	r.mu.RUnlock()

	cfg, err := r.loadActive()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cached = cfg
	r.mu.Unlock()

	copied := *cfg
	return &copied, nil
}

// Update deactivates every existing row and inserts the new one in a single
// transaction, then swaps the in-memory cache.
func (r *ConfigRepository) Update(cfg *model.DeliveryConfig) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE delivery_configs SET is_active=false, updated_at=NOW() WHERE is_active=true`); err != nil {
		return err
	}

	cfg.IsActive = true
	cfg.CreatedAt = time.Now()
	query := `
        INSERT INTO delivery_configs (provider, api_key, from_email, from_name, reply_to, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, true, $6)
        RETURNING id
    `
	if err := tx.QueryRow(query, cfg.Provider, cfg.APIKey, cfg.FromEmail,
		cfg.FromName, cfg.ReplyTo, cfg.CreatedAt).Scan(&cfg.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.mu.Lock()
	copied := *cfg
	r.cached = &copied
	r.mu.Unlock()
	return nil
}

func (r *ConfigRepository) loadActive() (*model.DeliveryConfig, error) {
	query := `
        SELECT id, provider, api_key, from_email, from_name, reply_to, is_active, created_at, updated_at
        FROM delivery_configs WHERE is_active=true
        ORDER BY id DESC LIMIT 1
    `
	var cfg model.DeliveryConfig
	err := r.DB.QueryRow(query).Scan(
		&cfg.ID, &cfg.Provider, &cfg.APIKey, &cfg.FromEmail, &cfg.FromName,
		&cfg.ReplyTo, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewConfiguration("delivery_config")
		}
		return nil, err
	}
	return &cfg, nil
}

var _ ConfigRepositoryInterface = (*ConfigRepository)(nil)
