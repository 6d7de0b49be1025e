package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	nu.Clean()
	if err := cli.validate.Struct(nu); err != nil {
		return err
	}
	if _, err := cli.usrSvc.Create(context.Background(), nu); err != nil {
		return errors.Wrap(err, "creating user")
	}
	fmt.Printf("User %q created\n", nu.Username)
	return nil
}
