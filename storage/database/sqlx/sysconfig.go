package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/mansa/core/sysconfig"
)

type sysconfigRow struct {
	ID                 string         `db:"id"`
	BannedWords        pq.StringArray `db:"banned_words"`
	AllowRegistration  bool           `db:"allow_registration"`
	RequireApproval    bool           `db:"require_approval"`
	MaintenanceMessage string         `db:"maintenance_message"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func newSysconfigRow(conf sysconfig.SystemConfig) sysconfigRow {
	words := conf.BannedWords
	if words == nil {
		words = []string{}
	}
	return sysconfigRow{
		ID:                 sysconfig.SingletonID,
		BannedWords:        words,
		AllowRegistration:  conf.AllowRegistration,
		RequireApproval:    conf.RequireApproval,
		MaintenanceMessage: conf.MaintenanceMessage,
		UpdatedAt:          conf.UpdatedAt,
	}
}

func (row sysconfigRow) config() sysconfig.SystemConfig {
	words := []string(row.BannedWords)
	if words == nil {
		words = []string{}
	}
	return sysconfig.SystemConfig{
		BannedWords:        words,
		AllowRegistration:  row.AllowRegistration,
		RequireApproval:    row.RequireApproval,
		MaintenanceMessage: row.MaintenanceMessage,
		UpdatedAt:          row.UpdatedAt,
	}
}

type sysconfigRepository struct {
	db *sqlx.DB
}

var _ sysconfig.Repository = (*sysconfigRepository)(nil)

func NewSysconfigRepository(db *sqlx.DB) sysconfig.Repository {
	return &sysconfigRepository{db: db}
}

func (repo *sysconfigRepository) GetConfig(ctx context.Context) (sysconfig.SystemConfig, error) {
	var row sysconfigRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, banned_words, allow_registration, require_approval, maintenance_message, updated_at
		FROM system_config WHERE id = $1`, sysconfig.SingletonID)
	if err != nil {
		return sysconfig.SystemConfig{}, orNotFound(err, sysconfig.ErrNotFound)
	}
	return row.config(), nil
}

func (repo *sysconfigRepository) CreateConfig(ctx context.Context, conf sysconfig.SystemConfig) (sysconfig.SystemConfig, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO system_config (id, banned_words, allow_registration, require_approval, maintenance_message, updated_at)
		VALUES (:id, :banned_words, :allow_registration, :require_approval, :maintenance_message, :updated_at)
		ON CONFLICT (id) DO NOTHING`, newSysconfigRow(conf))
	if err != nil {
		return sysconfig.SystemConfig{}, err
	}
	return repo.GetConfig(ctx)
}

func (repo *sysconfigRepository) UpdateConfig(ctx context.Context, conf sysconfig.SystemConfig) (sysconfig.SystemConfig, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO system_config (id, banned_words, allow_registration, require_approval, maintenance_message, updated_at)
		VALUES (:id, :banned_words, :allow_registration, :require_approval, :maintenance_message, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			banned_words = EXCLUDED.banned_words,
			allow_registration = EXCLUDED.allow_registration,
			require_approval = EXCLUDED.require_approval,
			maintenance_message = EXCLUDED.maintenance_message,
			updated_at = EXCLUDED.updated_at`, newSysconfigRow(conf))
	if err != nil {
		return sysconfig.SystemConfig{}, err
	}
	return repo.GetConfig(ctx)
}
