package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/curriculum"
)

type curriculumApi struct {
	*handler
	svc *curriculum.Service
}

func registerCurriculumAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *curriculum.Service, h *handler) {
	api := curriculumApi{handler: h, svc: svc}

	g.GET("/stages", api.stages)

	ag := g.Group("", authed...)
	ag.GET("/stats", api.stats, teacherOrAdmin)
	ag.GET("/subjects/:id", api.subject)
	ag.GET("/lessons", api.lessons)
	ag.GET("/lessons/:id", api.lesson)
	ag.POST("/lessons/:id/complete", api.complete, studentOnly)

	ag.POST("/stages", api.createStage, adminOnly)
	ag.POST("/grades", api.createGrade, adminOnly)
	ag.POST("/subjects", api.createSubject, adminOnly)
	ag.POST("/units", api.createUnit, teacherOrAdmin)
	ag.POST("/lessons", api.createLesson, teacherOrAdmin)
}

func (api *curriculumApi) stages(ctx echo.Context) error {
	stages, err := api.svc.Stages(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stages)
}

func (api *curriculumApi) stats(ctx echo.Context) error {
	stats, err := api.svc.TeacherStats(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *curriculumApi) subject(ctx echo.Context) error {
	subj, err := api.svc.Subject(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *curriculumApi) lessons(ctx echo.Context) error {
	lessons, err := api.svc.Lessons(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *curriculumApi) lesson(ctx echo.Context) error {
	lesson, err := api.svc.Lesson(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *curriculumApi) complete(ctx echo.Context) error {
	if err := api.svc.MarkComplete(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "marking lesson complete")
	}
	return success(ctx, "Lesson marked as complete")
}

func (api *curriculumApi) createStage(ctx echo.Context) error {
	var data curriculum.NewStage
	if err := bind(ctx, &data); err != nil {
		return err
	}
	stage, err := api.svc.CreateStage(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating stage")
	}
	return ctx.JSON(http.StatusCreated, stage)
}

func (api *curriculumApi) createGrade(ctx echo.Context) error {
	var data curriculum.NewGrade
	if err := bind(ctx, &data); err != nil {
		return err
	}
	grade, err := api.svc.CreateGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *curriculumApi) createSubject(ctx echo.Context) error {
	var data curriculum.NewSubject
	if err := bind(ctx, &data); err != nil {
		return err
	}
	subj, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *curriculumApi) createUnit(ctx echo.Context) error {
	var data curriculum.NewUnit
	if err := bind(ctx, &data); err != nil {
		return err
	}
	unit, err := api.svc.CreateUnit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating unit")
	}
	return ctx.JSON(http.StatusCreated, unit)
}

func (api *curriculumApi) createLesson(ctx echo.Context) error {
	var data curriculum.NewLesson
	if err := bind(ctx, &data); err != nil {
		return err
	}
	lesson, err := api.svc.CreateLesson(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	api.record(ctx, activity.ActionCreateLesson, map[string]interface{}{"lesson_id": lesson.ID, "title": lesson.Title})
	return ctx.JSON(http.StatusCreated, lesson)
}
