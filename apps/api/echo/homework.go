package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/homework"
)

type homeworkApi struct {
	svc *homework.Service
}

func registerHomeworkAPI(g *echo.Group, svc *homework.Service) {
	api := homeworkApi{svc: svc}

	g.GET("", api.query)
	g.POST("", api.create, teacherOrAdmin)
	g.GET("/my-submissions", api.mySubmissions, studentOnly)
	g.PATCH("/submissions/:id/grade", api.grade, teacherOrAdmin)
	g.GET("/:id/submissions", api.submissions, teacherOrAdmin)
	g.POST("/:id/submit", api.submit, studentOnly)
}

func (api *homeworkApi) query(ctx echo.Context) error {
	assignments, err := api.svc.Query(ctx.Request().Context(), contextUser(ctx), ctx.QueryParam("subject_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *homeworkApi) create(ctx echo.Context) error {
	var data homework.NewAssignment
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *homeworkApi) submit(ctx echo.Context) error {
	var data homework.NewSubmission
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, err := api.svc.Submit(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *homeworkApi) submissions(ctx echo.Context) error {
	subs, err := api.svc.Submissions(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *homeworkApi) grade(ctx echo.Context) error {
	var data homework.Grade
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, err := api.svc.Grade(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *homeworkApi) mySubmissions(ctx echo.Context) error {
	subs, err := api.svc.MySubmissions(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}
