package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core/subscription"
)

type subscriptionApi struct {
	svc *subscription.Service
}

func registerSubscriptionAPI(g *echo.Group, svc *subscription.Service) {
	api := subscriptionApi{svc: svc}

	// students
	g.GET("/teachers", api.allTeachers, studentOnly)
	g.GET("/my-teachers", api.myTeachers, studentOnly)
	g.GET("/content/lessons", api.lessons, studentOnly)
	g.GET("/content/quizzes", api.quizzes, studentOnly)
	g.POST("/subscribe", api.subscribe, studentOnly)
	g.POST("/unsubscribe", api.unsubscribe, studentOnly)

	// teachers
	g.GET("/my-students", api.myStudents, teacherOnly)
	g.GET("/my-students/results", api.myStudentsResults, teacherOnly)
	g.GET("/requests", api.requests, teacherOnly)
	g.POST("/approve", api.approve, teacherOnly)
	g.POST("/reject", api.reject, teacherOnly)
	g.POST("/remove-student", api.removeStudent, teacherOnly)
}

func (api *subscriptionApi) allTeachers(ctx echo.Context) error {
	teachers, err := api.svc.AllTeachers(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *subscriptionApi) myTeachers(ctx echo.Context) error {
	teachers, err := api.svc.MyTeachers(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *subscriptionApi) lessons(ctx echo.Context) error {
	lessons, err := api.svc.SubscribedLessons(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *subscriptionApi) quizzes(ctx echo.Context) error {
	quizzes, err := api.svc.SubscribedQuizzes(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *subscriptionApi) subscribe(ctx echo.Context) error {
	var data TeacherRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, err := api.svc.Subscribe(ctx.Request().Context(), contextUser(ctx), data.TeacherID)
	if err != nil {
		return errors.Wrap(err, "subscribing")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subscriptionApi) unsubscribe(ctx echo.Context) error {
	var data TeacherRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := api.svc.Unsubscribe(ctx.Request().Context(), contextUser(ctx), data.TeacherID); err != nil {
		return errors.Wrap(err, "unsubscribing")
	}
	return success(ctx, "Unsubscribed")
}

func (api *subscriptionApi) myStudents(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	students, info, err := api.svc.MyStudents(ctx.Request().Context(), contextUser(ctx), ctx.QueryParam("search"), page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("students", students, info))
}

func (api *subscriptionApi) myStudentsResults(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}
	filter := subscription.ResultFilter{
		StudentID: ctx.QueryParam("student_id"),
		QuizID:    ctx.QueryParam("quiz_id"),
		Sort:      ctx.QueryParam("sort"),
	}
	results, info, err := api.svc.MyStudentsResults(ctx.Request().Context(), contextUser(ctx), filter, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, paged("results", results, info))
}

func (api *subscriptionApi) requests(ctx echo.Context) error {
	reqs, err := api.svc.PendingRequests(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *subscriptionApi) approve(ctx echo.Context) error {
	var data StudentRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, err := api.svc.Approve(ctx.Request().Context(), contextUser(ctx), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "approving subscription")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subscriptionApi) reject(ctx echo.Context) error {
	var data StudentRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := api.svc.Reject(ctx.Request().Context(), contextUser(ctx), data.StudentID); err != nil {
		return errors.Wrap(err, "rejecting subscription")
	}
	return success(ctx, "Request rejected")
}

func (api *subscriptionApi) removeStudent(ctx echo.Context) error {
	var data StudentRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := api.svc.RemoveStudent(ctx.Request().Context(), contextUser(ctx), data.StudentID); err != nil {
		return errors.Wrap(err, "removing student")
	}
	return success(ctx, "Student removed")
}
