package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if tag := user.PasswordPolicyViolation(pwd, usr.Name, usr.Username, usr.Email); tag != "" {
		return errors.New(user.PasswordPolicyText(tag))
	}
	return cli.usrSvc.ResetPassword(ctx, usr.Username, pwd)
}
