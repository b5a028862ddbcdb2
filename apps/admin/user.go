package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
)

// addUser updates or creates an active user.
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	nu.Role = core.CleanString(nu.Role)
	if !user.IsValidRole(nu.Role) {
		return user.User{}, errors.Errorf("invalid role %q", nu.Role)
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, nu.Email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, nu)
	}

	if usr, err = cli.usrSvc.UpdateProfile(ctx, usr, user.UpdateProfile{
		Name:            nu.Name,
		Password:        nu.Password,
		PasswordConfirm: nu.Password,
	}); err != nil {
		return user.User{}, err
	}
	usr.Role = nu.Role
	usr.IsActive = true
	usr.IsBlocked = false
	return cli.usrRepo.UpdateUser(ctx, usr)
}

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.UpdateProfile(ctx, usr, user.UpdateProfile{Password: pwd, PasswordConfirm: pwd})
	return err
}
