package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/notification"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/subscription"
	"github.com/trezcool/mansa/core/sysconfig"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/services/email"
	"github.com/trezcool/mansa/services/logger"
	"github.com/trezcool/mansa/storage/database/inmem"
)

const testPassword = "Correct-Horse9"

func setup(t *testing.T) *commandLine {
	t.Helper()

	conf := &core.Config{
		Env:        "TEST",
		AppName:    "Mansa",
		TestMode:   true,
		AdminEmail: "admin@mansa.edu",
		Email:      core.EmailConfig{DefaultFromName: "Mansa", DefaultFromEmail: "noreply@mansa.edu"},
	}
	logger := logsvc.NewNopLogger()

	db := inmemdb.Open()
	configSvc := sysconfig.NewService(inmemdb.NewSysconfigRepository(db))
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db), logger)
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf), configSvc, conf.AdminEmail)
	subSvc := subscription.NewService(inmemdb.NewSubscriptionRepository(db), usrSvc, notifSvc)

	origReadPassword, origMigrate := readPasswordFunc, migrateFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(testPassword), nil }
	t.Cleanup(func() { readPasswordFunc, migrateFunc = origReadPassword, origMigrate })

	return &commandLine{
		out:        new(bytes.Buffer),
		usrRepo:    usrRepo,
		usrSvc:     usrSvc,
		curSvc:     curriculum.NewService(inmemdb.NewCurriculumRepository(db), notifSvc, subSvc),
		quizSvc:    quiz.NewService(inmemdb.NewQuizRepository(db)),
		subSvc:     subSvc,
		adminEmail: conf.AdminEmail,
	}
}

func run(cli *commandLine, args ...string) error {
	return cli.run(append([]string{"admin"}, args...))
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no command"},
		{name: "unknown command", args: []string{"lol"}},
		{name: "adduser: no args", args: []string{"adduser"}},
		{name: "adduser: no name", args: []string{"adduser", "-email", "a@b.cd"}},
		{name: "adduser: unknown flag", args: []string{"adduser", "-lol"}},
		{name: "resetpassword: no args", args: []string{"resetpassword"}},
		{name: "migrate: no command", args: []string{"migrate"}},
		{name: "backfill: no target", args: []string{"backfill"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, errHelp, run(cli, tt.args...))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCmd string
	var gotArgs []string
	migrateFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "down", "redo", "reset", "status", "version", "up-to", "down-to":
			gotCmd, gotArgs = command, args
			return nil
		default:
			return errors.Errorf("%q: no such command", command)
		}
	}

	require.NoError(t, run(cli, "migrate", "up"))
	assert.Equal(t, "up", gotCmd)
	assert.Empty(t, gotArgs)

	require.NoError(t, run(cli, "migrate", "up-to", "3"))
	assert.Equal(t, "up-to", gotCmd)
	assert.Equal(t, []string{"3"}, gotArgs)

	assert.EqualError(t, run(cli, "migrate", "lol"), `"lol": no such command`)
}

func Test_commandLine_addUser(t *testing.T) {
	ctx := context.Background()
	cli := setup(t)

	require.NoError(t, run(cli, "adduser", "-email", "Boss@Mansa.edu", "-name", "Boss"))
	usr, err := cli.usrSvc.GetByEmail(ctx, "boss@mansa.edu")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(testPassword))

	// updating an existing user
	readPasswordFunc = func(int) ([]byte, error) { return []byte("Battery-Staple7"), nil }
	require.NoError(t, run(cli, "adduser", "-email", "boss@mansa.edu", "-name", "Big Boss", "-role", user.RoleTeacher))
	updated, err := cli.usrSvc.GetByEmail(ctx, "boss@mansa.edu")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, updated.ID)
	assert.Equal(t, "Big Boss", updated.Name)
	assert.Equal(t, user.RoleTeacher, updated.Role)
	assert.NoError(t, updated.CheckPassword("Battery-Staple7"))

	assert.Error(t, run(cli, "adduser", "-email", "x@mansa.edu", "-name", "X", "-role", "LOL"))

	readPasswordFunc = func(int) ([]byte, error) { return nil, nil }
	assert.Equal(t, errHelp, run(cli, "adduser", "-email", "x@mansa.edu", "-name", "X"))

	readPasswordFunc = func(int) ([]byte, error) { return []byte("123456"), nil }
	assert.Error(t, run(cli, "adduser", "-email", "x@mansa.edu", "-name", "X"), "password policy applies")
}

func Test_commandLine_resetPassword(t *testing.T) {
	ctx := context.Background()
	cli := setup(t)

	usr, err := cli.usrSvc.Create(ctx, user.NewUser{Name: "Awe", Email: "awe@test.cd", Password: testPassword})
	require.NoError(t, err)

	err = run(cli, "resetpassword", "-email", "lol@test.cd")
	assert.True(t, core.IsNotFound(err))

	readPasswordFunc = func(int) ([]byte, error) { return []byte("Battery-Staple7"), nil }
	require.NoError(t, run(cli, "resetpassword", "-email", usr.Email))
	refreshed, err := cli.usrSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NotEqual(t, usr.PasswordHash, refreshed.PasswordHash)
	assert.NoError(t, refreshed.CheckPassword("Battery-Staple7"))

	readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	assert.Error(t, run(cli, "resetpassword", "-email", usr.Email))
}

func Test_commandLine_seed(t *testing.T) {
	ctx := context.Background()
	cli := setup(t)

	require.NoError(t, run(cli, "seed"))
	admin, err := cli.usrSvc.GetByEmail(ctx, "admin@mansa.edu")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	stages, err := cli.curSvc.Stages(ctx)
	require.NoError(t, err)
	require.Len(t, stages, len(sampleCurriculum))
	grades := make(map[string]int, len(stages))
	for _, stage := range stages {
		grades[stage.Name] = len(stage.Grades)
		require.NotEmpty(t, stage.Grades, stage.Name)
		assert.NotEmpty(t, stage.Grades[0].Subjects, stage.Name)
	}
	for _, ss := range sampleCurriculum {
		assert.Equal(t, len(ss.grades), grades[ss.name], ss.name)
	}

	// seeding twice is a no-op
	require.NoError(t, run(cli, "seed"))
	stages, err = cli.curSvc.Stages(ctx)
	require.NoError(t, err)
	assert.Len(t, stages, len(sampleCurriculum))
	assert.Contains(t, cli.out.(*bytes.Buffer).String(), "curriculum already seeded")
}

func Test_commandLine_backfill(t *testing.T) {
	ctx := context.Background()
	cli := setup(t)

	teacher, err := cli.usrSvc.Create(ctx, user.NewUser{Name: "Teacher", Email: "t@test.cd", Password: testPassword, Role: user.RoleTeacher})
	require.NoError(t, err)
	student, err := cli.usrSvc.Create(ctx, user.NewUser{Name: "Student", Email: "s@test.cd", Password: testPassword})
	require.NoError(t, err)
	_, err = cli.subSvc.Subscribe(ctx, student, teacher.ID)
	require.NoError(t, err)

	require.NoError(t, run(cli, "backfill", "subscriptions"))
	ids, err := cli.subSvc.ApprovedStudentIDs(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{student.ID}, ids)
	assert.Contains(t, cli.out.(*bytes.Buffer).String(), "1 subscriptions approved")

	require.NoError(t, run(cli, "backfill", "percentages"))
	assert.Contains(t, cli.out.(*bytes.Buffer).String(), "0 results updated")

	assert.EqualError(t, run(cli, "backfill", "lol"), `"lol": unknown backfill target`)
}
