package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/qa"
)

type (
	VoteRequest struct {
		IsUpvote bool `json:"is_upvote"`
	}

	BestAnswerRequest struct {
		AnswerID string `json:"answer_id"`
	}
)

type qaApi struct {
	svc *qa.Service
}

func registerQAAPI(g *echo.Group, svc *qa.Service) {
	api := qaApi{svc: svc}

	g.GET("", api.query)
	g.POST("", api.createQuestion)
	g.PATCH("/answers/:id", api.updateAnswer)
	g.DELETE("/answers/:id", api.deleteAnswer)
	g.POST("/answers/:id/vote", api.voteAnswer)
	g.GET("/:id", api.retrieve)
	g.PATCH("/:id", api.updateQuestion)
	g.DELETE("/:id", api.deleteQuestion)
	g.POST("/:id/vote", api.voteQuestion)
	g.POST("/:id/answers", api.createAnswer)
	g.POST("/:id/best-answer", api.markBest)
}

func (api *qaApi) query(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	filter := qa.QueryFilter{
		LessonID:  ctx.QueryParam("lesson_id"),
		SubjectID: ctx.QueryParam("subject_id"),
		AuthorID:  ctx.QueryParam("author_id"),
		Search:    ctx.QueryParam("search"),
		Ordering:  ord.First(core.DBOrdering{Field: "created_at"}),
	}
	questions, info, err := api.svc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("questions", questions, info))
}

func (api *qaApi) retrieve(ctx echo.Context) error {
	q, err := api.svc.Get(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *qaApi) createQuestion(ctx echo.Context) error {
	var data qa.NewQuestion
	if err := bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.CreateQuestion(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *qaApi) updateQuestion(ctx echo.Context) error {
	var data qa.UpdateQuestion
	if err := bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.UpdateQuestion(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *qaApi) deleteQuestion(ctx echo.Context) error {
	if err := api.svc.DeleteQuestion(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return success(ctx, "Question deleted")
}

func (api *qaApi) createAnswer(ctx echo.Context) error {
	var data qa.AnswerInput
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.CreateAnswer(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating answer")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *qaApi) updateAnswer(ctx echo.Context) error {
	var data qa.AnswerInput
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.UpdateAnswer(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating answer")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *qaApi) deleteAnswer(ctx echo.Context) error {
	if err := api.svc.DeleteAnswer(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting answer")
	}
	return success(ctx, "Answer deleted")
}

func (api *qaApi) markBest(ctx echo.Context) error {
	var data BestAnswerRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.MarkBestAnswer(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data.AnswerID)
	if err != nil {
		return errors.Wrap(err, "marking best answer")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *qaApi) voteQuestion(ctx echo.Context) error {
	var data VoteRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.VoteQuestion(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data.IsUpvote)
	if err != nil {
		return errors.Wrap(err, "voting on question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *qaApi) voteAnswer(ctx echo.Context) error {
	var data VoteRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.VoteAnswer(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data.IsUpvote)
	if err != nil {
		return errors.Wrap(err, "voting on answer")
	}
	return ctx.JSON(http.StatusOK, q)
}
