package sysconfig

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("system config not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// GetConfig returns ErrNotFound when the configuration was never saved.
		GetConfig(ctx context.Context) (SystemConfig, error)
		// CreateConfig inserts conf unless a configuration already exists, and returns the stored one.
		CreateConfig(ctx context.Context, conf SystemConfig) (SystemConfig, error)
		UpdateConfig(ctx context.Context, conf SystemConfig) (SystemConfig, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the system configuration, creating the default one on first access.
func (svc *Service) Get(ctx context.Context) (SystemConfig, error) {
	conf, err := svc.repo.GetConfig(ctx)
	if errors.Cause(err) == ErrNotFound {
		def := Default()
		def.UpdatedAt = nowFunc().UTC()
		conf, err = svc.repo.CreateConfig(ctx, def)
	}
	if err != nil {
		return SystemConfig{}, errors.Wrap(err, "getting system config")
	}
	if conf.BannedWords == nil {
		conf.BannedWords = []string{}
	}
	return conf, nil
}

func (svc *Service) Update(ctx context.Context, uc UpdateConfig) (SystemConfig, error) {
	if err := uc.Validate(); err != nil {
		return SystemConfig{}, err
	}
	conf, err := svc.Get(ctx)
	if err != nil {
		return SystemConfig{}, err
	}
	if uc.BannedWords != nil {
		conf.BannedWords = *uc.BannedWords
	}
	if uc.AllowRegistration != nil {
		conf.AllowRegistration = *uc.AllowRegistration
	}
	if uc.RequireApproval != nil {
		conf.RequireApproval = *uc.RequireApproval
	}
	if uc.MaintenanceMessage != nil {
		conf.MaintenanceMessage = *uc.MaintenanceMessage
	}
	conf.UpdatedAt = nowFunc().UTC()
	conf, err = svc.repo.UpdateConfig(ctx, conf)
	return conf, errors.Wrap(err, "updating system config")
}

func (svc *Service) BannedWords(ctx context.Context) ([]string, error) {
	conf, err := svc.Get(ctx)
	if err != nil {
		return nil, err
	}
	return conf.BannedWords, nil
}

// SetBannedWords replaces the banned words list.
func (svc *Service) SetBannedWords(ctx context.Context, bw BannedWords) ([]string, error) {
	if err := bw.Validate(); err != nil {
		return nil, err
	}
	conf, err := svc.Update(ctx, UpdateConfig{BannedWords: &bw.Words})
	if err != nil {
		return nil, err
	}
	return conf.BannedWords, nil
}

func (svc *Service) RegistrationPolicy(ctx context.Context) (allowed, requireApproval bool, err error) {
	conf, err := svc.Get(ctx)
	if err != nil {
		return false, false, err
	}
	return conf.AllowRegistration, conf.RequireApproval, nil
}
