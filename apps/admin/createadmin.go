package main

import (
	"context"
	"time"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/user"
)

// createAdmin updates or creates an account holding all roles.
func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      name,
			Email:     email,
			CreatedAt: now,
		}
	}
	usr.Roles = user.AllRoles
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		isActive := true
		_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	}
	return err
}
