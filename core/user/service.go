package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account pending approval")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrRegistrationClosed = core.NewPermissionError("registration is closed")
	ErrNotPending         = core.NewValidationError(errors.New("user is not pending approval"))
	ErrSelfAction         = core.NewPermissionError("you cannot perform this action on your own account")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when another user (deleted ones included) has email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns the first non-deleted User matching all the non-empty GetFilter fields.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers returns a page of non-deleted users, newest first.
		// QueryFilter.Search does a case-insensitive match on User.Name or User.Email.
		QueryUsers(ctx context.Context, filter QueryFilter, page core.Page) ([]User, int, error)
		QueryPendingUsers(ctx context.Context) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error
		CountUsers(ctx context.Context) (Stats, error)
	}

	// RegistrationSettings exposes the registration switches of the system configuration.
	RegistrationSettings interface {
		RegistrationPolicy(ctx context.Context) (allowed, requireApproval bool, err error)
	}

	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		settings   RegistrationSettings
		adminEmail string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, settings RegistrationSettings, adminEmail string) *Service {
	return &Service{
		repo:       repo,
		mailSvc:    mailSvc,
		settings:   settings,
		adminEmail: adminEmail,
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// Create creates an active user. An empty role defaults to RoleStudent.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(ctx, svc); err != nil {
		return User{}, err
	}
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
	return svc.create(ctx, nu, true)
}

func (svc *Service) create(ctx context.Context, nu NewUser, active bool) (User, error) {
	now := nowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}

// Register signs up a student. Depending on the system configuration, the account waits for an admin approval.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	allowed, requireApproval := true, false
	if svc.settings != nil {
		var err error
		if allowed, requireApproval, err = svc.settings.RegistrationPolicy(ctx); err != nil {
			return User{}, errors.Wrap(err, "getting registration policy")
		}
	}
	if !allowed {
		return User{}, ErrRegistrationClosed
	}

	nu.Role = RoleStudent
	if err := nu.Validate(ctx, svc); err != nil {
		return User{}, err
	}
	usr, err := svc.create(ctx, nu, !requireApproval)
	if err != nil {
		return User{}, err
	}
	if requireApproval && svc.adminEmail != "" {
		svc.sendMail(&core.EmailMessage{
			To:           []mail.Address{{Name: "Admin", Address: svc.adminEmail}},
			Subject:      "New registration pending approval",
			TemplateName: "new_registration",
			TemplateData: usr,
		})
	}
	return usr, nil
}

// Authenticate checks the user's credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if usr.IsBlocked {
		return User{}, ErrAccountBlocked
	}
	if !usr.IsActive {
		return User{}, ErrAccountInactive
	}

	now := nowFunc().UTC()
	usr.LastLogin = &now
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting last login")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	if err := up.Validate(ctx, usr, svc); err != nil {
		return User{}, err
	}
	usr.Name = up.Name
	usr.Email = up.Email
	usr.UpdatedAt = nowFunc().UTC()
	if up.Password != "" {
		if err := usr.SetPassword(up.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.Page) ([]User, core.PageInfo, error) {
	filter.Clean()
	page.Clean()
	users, total, err := svc.repo.QueryUsers(ctx, filter, page)
	if err != nil {
		return nil, core.PageInfo{}, errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []User{}
	}
	return users, core.NewPageInfo(page, total), nil
}

// Delete soft-deletes a user. Users cannot delete themselves.
func (svc *Service) Delete(ctx context.Context, actor User, id string) error {
	if actor.ID == id {
		return ErrSelfAction
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	usr.IsDeleted = true
	usr.UpdatedAt = nowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "deleting user")
}

func (svc *Service) ChangeRole(ctx context.Context, actor User, id string, cr ChangeRole) (User, error) {
	if err := cr.Validate(); err != nil {
		return User{}, err
	}
	if actor.ID == id {
		return User{}, ErrSelfAction
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Role = cr.Role
	usr.UpdatedAt = nowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "changing role")
}

func (svc *Service) SetBlocked(ctx context.Context, actor User, id string, blocked bool) (User, error) {
	if actor.ID == id {
		return User{}, ErrSelfAction
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsBlocked = blocked
	usr.UpdatedAt = nowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating blocked status")
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := svc.repo.CountUsers(ctx)
	return stats, errors.Wrap(err, "counting users")
}

func (svc *Service) Pending(ctx context.Context) ([]User, error) {
	users, err := svc.repo.QueryPendingUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending users")
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Approve activates a pending user and lets them know by email.
func (svc *Service) Approve(ctx context.Context, id string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !usr.IsPending() {
		return User{}, ErrNotPending
	}
	usr.IsActive = true
	usr.UpdatedAt = nowFunc().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "approving user")
	}
	svc.sendMail(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your account has been approved",
		TemplateName: "account_approved",
		TemplateData: usr,
	})
	return usr, nil
}

// Reject removes a pending user for good and lets them know by email.
func (svc *Service) Reject(ctx context.Context, id string) error {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !usr.IsPending() {
		return ErrNotPending
	}
	if err = svc.repo.DeleteUser(ctx, usr.ID); err != nil {
		return errors.Wrap(err, "rejecting user")
	}
	svc.sendMail(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your registration request",
		TemplateName: "account_rejected",
		TemplateData: usr,
	})
	return nil
}

func (svc *Service) sendMail(msg *core.EmailMessage) {
	if svc.mailSvc != nil {
		svc.mailSvc.SendMessages(msg)
	}
}
