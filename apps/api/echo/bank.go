package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/bank"
)

type bankApi struct {
	svc *bank.Service
}

func registerBankAPI(g *echo.Group, svc *bank.Service) {
	api := bankApi{svc: svc}

	g.GET("", api.query)
	g.POST("", api.create, teacherOrAdmin)
	g.POST("/import", api.importQuestions, teacherOrAdmin)
	g.DELETE("/:id", api.destroy, teacherOrAdmin)
}

func (api *bankApi) query(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	filter := bank.QueryFilter{
		Search:     ctx.QueryParam("search"),
		SubjectID:  ctx.QueryParam("subject_id"),
		UnitID:     ctx.QueryParam("unit_id"),
		Difficulty: ctx.QueryParam("difficulty"),
	}
	questions, info, err := api.svc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("questions", questions, info))
}

func (api *bankApi) create(ctx echo.Context) error {
	var data bank.NewQuestion
	if err := bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating bank question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *bankApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting bank question")
	}
	return success(ctx, "Question deleted")
}

func (api *bankApi) importQuestions(ctx echo.Context) error {
	var data bank.Import
	if err := bind(ctx, &data); err != nil {
		return err
	}
	n, err := api.svc.Import(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "importing bank questions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Questions imported", "imported": n})
}
