package inmemdb

import (
	"context"

	"github.com/trezcool/mansa/core/sysconfig"
)

type sysconfigRepository struct {
	db *sysconfigTable
}

var _ sysconfig.Repository = (*sysconfigRepository)(nil)

func NewSysconfigRepository(db *DB) sysconfig.Repository {
	return &sysconfigRepository{db: db.sysconfig}
}

func copyConfig(conf sysconfig.SystemConfig) sysconfig.SystemConfig {
	conf.BannedWords = append([]string{}, conf.BannedWords...)
	return conf
}

func (repo *sysconfigRepository) GetConfig(context.Context) (sysconfig.SystemConfig, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.conf == nil {
		return sysconfig.SystemConfig{}, sysconfig.ErrNotFound
	}
	return copyConfig(*repo.db.conf), nil
}

func (repo *sysconfigRepository) CreateConfig(_ context.Context, conf sysconfig.SystemConfig) (sysconfig.SystemConfig, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.conf == nil {
		conf = copyConfig(conf)
		repo.db.conf = &conf
	}
	return copyConfig(*repo.db.conf), nil
}

func (repo *sysconfigRepository) UpdateConfig(_ context.Context, conf sysconfig.SystemConfig) (sysconfig.SystemConfig, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	conf = copyConfig(conf)
	repo.db.conf = &conf
	return copyConfig(conf), nil
}
