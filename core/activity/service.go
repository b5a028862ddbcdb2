package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
)

var nowFunc = time.Now // mockable

type (
	Repository interface {
		CreateLog(ctx context.Context, l Log) (Log, error)
		// QueryLogs returns a page of logs, newest first.
		QueryLogs(ctx context.Context, filter QueryFilter, page core.Page) ([]Log, int, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an entry to the activity log. Failures are logged, never returned.
func (svc *Service) Record(ctx context.Context, userID, action string, details interface{}, ip string) {
	if err := svc.record(ctx, userID, action, details, ip); err != nil && svc.logger != nil {
		svc.logger.Error("recording activity", err, map[string]interface{}{"action": action, "user_id": userID})
	}
}

func (svc *Service) record(ctx context.Context, userID, action string, details interface{}, ip string) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return errors.Wrap(err, "marshalling details")
	}
	l := Log{
		Action:    action,
		Details:   raw,
		IP:        ip,
		CreatedAt: nowFunc().UTC(),
	}
	if userID != "" {
		l.UserID = &userID
	}
	_, err = svc.repo.CreateLog(ctx, l)
	return errors.Wrap(err, "creating activity log")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.Page) ([]Log, core.PageInfo, error) {
	filter.Search = core.CleanString(filter.Search)
	filter.Action = core.CleanString(filter.Action)
	page.Clean()
	logs, total, err := svc.repo.QueryLogs(ctx, filter, page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying activity logs")
	}
	if logs == nil {
		logs = []Log{}
	}
	return logs, core.NewPageInfo(page, total), nil
}
