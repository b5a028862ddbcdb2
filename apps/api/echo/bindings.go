package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=field,-other` ("-" for descending).
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// First returns the first ordering, or fallback when none was given.
func (ord *Ordering) First(fallback core.DBOrdering) core.DBOrdering {
	if len(ord.Orderings) == 0 {
		return fallback
	}
	return ord.Orderings[0]
}

// bindPage reads `?page=&limit=`.
func bindPage(ctx echo.Context) (core.Page, error) {
	var page core.Page
	err := echo.QueryParamsBinder(ctx).
		Int("page", &page.Page).
		Int("limit", &page.Limit).
		BindError()
	if err != nil {
		return core.Page{}, echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}
	page.Clean()
	return page, nil
}

// bind decodes the request body into data.
func bind(ctx echo.Context, data interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(ctx, data); err != nil {
		return errors.Wrap(err, "binding request body")
	}
	return nil
}

// paged renders a page of items under key, with the page info alongside.
func paged(key string, items interface{}, info core.PageInfo) echo.Map {
	return echo.Map{
		key:     items,
		"total": info.Total,
		"page":  info.Page,
		"limit": info.Limit,
		"pages": info.Pages,
	}
}

type (
	SuccessResponse struct {
		Message string `json:"message"`
	}

	StudentRequest struct {
		StudentID string `json:"student_id"`
	}

	TeacherRequest struct {
		TeacherID string `json:"teacher_id"`
	}

	UserRequest struct {
		UserID string `json:"user_id"`
	}
)

func success(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusOK, SuccessResponse{Message: msg})
}
