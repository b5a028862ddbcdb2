package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/activity"
	"github.com/trezcool/mansa/core/quiz"
)

type quizApi struct {
	*handler
	svc *quiz.Service
}

func registerQuizAPI(g *echo.Group, svc *quiz.Service, h *handler) {
	api := quizApi{handler: h, svc: svc}

	g.POST("", api.create, teacherOrAdmin)
	g.GET("/my-quizzes", api.queryMine, teacherOrAdmin)
	g.GET("/results/me", api.myResults)
	g.GET("/attempt/:id/review", api.review)
	g.POST("/submit", api.submit)
	g.GET("/:id", api.retrieve)
	g.PATCH("/:id", api.update, teacherOrAdmin)
	g.DELETE("/:id", api.destroy, teacherOrAdmin)
	g.POST("/:id/questions", api.addQuestion, teacherOrAdmin)
	g.POST("/:id/attempt", api.startAttempt)
	g.GET("/:id/results", api.results, teacherOrAdmin)
}

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := bind(ctx, &data); err != nil {
		return err
	}
	qz, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	api.record(ctx, activity.ActionCreateQuiz, map[string]interface{}{"quiz_id": qz.ID, "title": qz.Title})
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) queryMine(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	quizzes, info, err := api.svc.QueryMine(ctx.Request().Context(), contextUser(ctx), ctx.QueryParam("search"), page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("quizzes", quizzes, info))
}

func (api *quizApi) myResults(ctx echo.Context) error {
	results, err := api.svc.QueryMyResults(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *quizApi) review(ctx echo.Context) error {
	review, err := api.svc.AttemptReview(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reviewing attempt")
	}
	return ctx.JSON(http.StatusOK, review)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	usr := contextUser(ctx)
	qz, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	if usr.IsStudent() {
		return ctx.JSON(http.StatusOK, qz.Public())
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	var data quiz.UpdateQuiz
	if err := bind(ctx, &data); err != nil {
		return err
	}
	qz, err := api.svc.Update(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.Delete(ctx.Request().Context(), contextUser(ctx), id); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	api.record(ctx, activity.ActionDeleteQuiz, map[string]interface{}{"quiz_id": id})
	return success(ctx, "Quiz deleted")
}

func (api *quizApi) addQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.AddQuestion(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *quizApi) startAttempt(ctx echo.Context) error {
	attempt, err := api.svc.StartAttempt(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "starting attempt")
	}
	return ctx.JSON(http.StatusOK, attempt)
}

func (api *quizApi) submit(ctx echo.Context) error {
	var data quiz.Submission
	if err := bind(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.SubmitAttempt(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "submitting attempt")
	}
	api.record(ctx, activity.ActionSubmitQuiz, map[string]interface{}{
		"quiz_id":    res.QuizID,
		"score":      res.Score,
		"total":      res.Total,
		"percentage": res.Percentage,
	})
	return ctx.JSON(http.StatusOK, res)
}

func (api *quizApi) results(ctx echo.Context) error {
	results, err := api.svc.QueryQuizResults(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying quiz results")
	}
	return ctx.JSON(http.StatusOK, results)
}
