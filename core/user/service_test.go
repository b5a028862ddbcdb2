package user_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/storage/database/inmem"
)

type mailRecorder struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

type registrationPolicy struct {
	allowed, requireApproval bool
}

func (p registrationPolicy) RegistrationPolicy(context.Context) (bool, bool, error) {
	return p.allowed, p.requireApproval, nil
}

func setup(t *testing.T, policy registrationPolicy) (*user.Service, *mailRecorder) {
	t.Helper()
	mailer := new(mailRecorder)
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return user.NewService(repo, mailer, policy, "admin@mansa.edu"), mailer
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("open registration", func(t *testing.T) {
		svc, mailer := setup(t, registrationPolicy{allowed: true})
		usr, err := svc.Register(ctx, user.NewUser{Name: " Jane ", Email: "JANE@test.cd", Password: "Correct-Horse9", Role: user.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, "Jane", usr.Name)
		assert.Equal(t, "jane@test.cd", usr.Email)
		assert.Equal(t, user.RoleStudent, usr.Role, "role is forced")
		assert.True(t, usr.IsActive)
		assert.Empty(t, mailer.sent)

		_, err = svc.Register(ctx, user.NewUser{Name: "Other", Email: "jane@test.cd", Password: "Correct-Horse9"})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("approval required", func(t *testing.T) {
		svc, mailer := setup(t, registrationPolicy{allowed: true, requireApproval: true})
		usr, err := svc.Register(ctx, user.NewUser{Name: "Jane", Email: "jane@test.cd", Password: "Correct-Horse9"})
		require.NoError(t, err)
		assert.False(t, usr.IsActive)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "admin@mansa.edu", mailer.sent[0].To[0].Address)

		_, err = svc.Authenticate(ctx, "jane@test.cd", "Correct-Horse9")
		assert.Equal(t, user.ErrAccountInactive, err)
	})

	t.Run("closed", func(t *testing.T) {
		svc, _ := setup(t, registrationPolicy{})
		_, err := svc.Register(ctx, user.NewUser{Name: "Jane", Email: "jane@test.cd", Password: "Correct-Horse9"})
		assert.Equal(t, user.ErrRegistrationClosed, err)
	})
}

func TestNewUser_PasswordPolicy(t *testing.T) {
	svc, _ := setup(t, registrationPolicy{allowed: true})
	ctx := context.Background()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "a1b2", wantTag: "pwdminlen"},
		{name: "whitespace", pwd: "abc def 123", wantTag: "pwdnospace"},
		{name: "all numeric", pwd: "1234567890", wantTag: "pwdnotallnum"},
		{name: "similar to name", pwd: "jonathan", wantTag: "pwdtoosim"},
		{name: "similar to email", pwd: "jonathan@x.io", wantTag: "pwdtoosim"},
		{name: "valid", pwd: "Correct-Horse9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := user.NewUser{Name: "Jonathan", Email: "jonathan@x.io", Password: tt.pwd}
			err := nu.Validate(ctx, svc)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "got %v", err)
			assert.Equal(t, "password", vErrs[0].Field())
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t, registrationPolicy{allowed: true})

	usr, err := svc.Create(ctx, user.NewUser{Name: "John", Email: "john@test.cd", Password: "Correct-Horse9", Role: user.RoleTeacher})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "nobody@test.cd", "Correct-Horse9")
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = svc.Authenticate(ctx, "john@test.cd", "wrong-password")
	assert.Equal(t, user.ErrInvalidCredentials, err)

	logged, err := svc.Authenticate(ctx, " John@Test.cd ", "Correct-Horse9")
	require.NoError(t, err)
	assert.NotNil(t, logged.LastLogin)

	admin, err := svc.Create(ctx, user.NewUser{Name: "Admin", Email: "root@test.cd", Password: "Correct-Horse9", Role: user.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.SetBlocked(ctx, admin, usr.ID, true)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "john@test.cd", "Correct-Horse9")
	assert.Equal(t, user.ErrAccountBlocked, err)

	_, err = svc.SetBlocked(ctx, admin, admin.ID, true)
	assert.Equal(t, user.ErrSelfAction, err)
}

func TestService_ApproveReject(t *testing.T) {
	ctx := context.Background()
	svc, mailer := setup(t, registrationPolicy{allowed: true, requireApproval: true})

	pending1, err := svc.Register(ctx, user.NewUser{Name: "Ann", Email: "ann@test.cd", Password: "Correct-Horse9"})
	require.NoError(t, err)
	pending2, err := svc.Register(ctx, user.NewUser{Name: "Bob", Email: "bob@test.cd", Password: "Correct-Horse9"})
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	approved, err := svc.Approve(ctx, pending1.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsActive)
	_, err = svc.Approve(ctx, pending1.ID)
	assert.Equal(t, user.ErrNotPending, err)

	require.NoError(t, svc.Reject(ctx, pending2.ID))
	_, err = svc.GetByID(ctx, pending2.ID)
	assert.Equal(t, user.ErrNotFound, err)
	assert.Equal(t, user.ErrNotPending, svc.Reject(ctx, pending1.ID))

	// 2 admin notifications + approval + rejection
	assert.Len(t, mailer.sent, 4)
}

func TestService_DeleteAndRoles(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t, registrationPolicy{allowed: true})

	admin, err := svc.Create(ctx, user.NewUser{Name: "Admin", Email: "root@test.cd", Password: "Correct-Horse9", Role: user.RoleAdmin})
	require.NoError(t, err)
	student, err := svc.Create(ctx, user.NewUser{Name: "Stu", Email: "stu@test.cd", Password: "Correct-Horse9"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, student.Role)

	_, err = svc.ChangeRole(ctx, admin, student.ID, user.ChangeRole{Role: "KING"})
	assert.Error(t, err)
	teacher, err := svc.ChangeRole(ctx, admin, student.ID, user.ChangeRole{Role: user.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, teacher.Role)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByRole[user.RoleTeacher])

	assert.Equal(t, user.ErrSelfAction, svc.Delete(ctx, admin, admin.ID))
	require.NoError(t, svc.Delete(ctx, admin, teacher.ID))
	_, err = svc.GetByID(ctx, teacher.ID)
	assert.True(t, core.IsNotFound(err))

	users, info, err := svc.Query(ctx, user.QueryFilter{}, core.Page{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, info.Total)
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t, registrationPolicy{allowed: true})

	usr, err := svc.Create(ctx, user.NewUser{Name: "Stu", Email: "stu@test.cd", Password: "Correct-Horse9"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.NewUser{Name: "Other", Email: "other@test.cd", Password: "Correct-Horse9"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, usr, user.UpdateProfile{Email: "other@test.cd"})
	assert.True(t, core.IsValidationError(err))

	_, err = svc.UpdateProfile(ctx, usr, user.UpdateProfile{Password: "Brand-New-Pass1"})
	assert.Error(t, err, "password confirmation is required")

	updated, err := svc.UpdateProfile(ctx, usr, user.UpdateProfile{Name: "Stuart", Password: "Brand-New-Pass1", PasswordConfirm: "Brand-New-Pass1"})
	require.NoError(t, err)
	assert.Equal(t, "Stuart", updated.Name)
	assert.Equal(t, "stu@test.cd", updated.Email)
	assert.NoError(t, updated.CheckPassword("Brand-New-Pass1"))
}
