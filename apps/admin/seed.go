package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/students-gateway/gateway/core/user"
)

type (
	seedUser struct {
		Username string `yaml:"username"`
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Role     string `yaml:"role"`
		Password string `yaml:"password"`
	}

	seedGroup struct {
		Name    string   `yaml:"name"`
		Owners  []string `yaml:"owners"`
		Members []string `yaml:"members"`
	}

	// fixture is the content of a seed file.
	fixture struct {
		Users  []seedUser  `yaml:"users"`
		Groups []seedGroup `yaml:"groups"`
	}
)

func loadFixture(path string) (fixture, error) {
	var fx fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return fx, errors.Wrap(err, "reading fixture")
	}
	if err = yaml.Unmarshal(data, &fx); err != nil {
		return fx, errors.Wrapf(err, "parsing %s", path)
	}
	return fx, nil
}

// seed creates the fixture's users, then its groups. Existing users are skipped.
func (cli *commandLine) seed(path string) error {
	fx, err := loadFixture(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, su := range fx.Users {
		nu := user.NewUser{
			Username: su.Username,
			Name:     su.Name,
			Email:    su.Email,
			Role:     su.Role,
			Password: su.Password,
		}
		nu.Clean()
		if err = cli.validate.Struct(nu); err != nil {
			return errors.Wrapf(err, "validating user %q", nu.Username)
		}
		if _, err = cli.usrSvc.Create(ctx, nu); err != nil {
			if errors.Cause(err) == user.ErrUserExists {
				fmt.Printf("User %q exists, skipped\n", nu.Username)
				continue
			}
			return errors.Wrapf(err, "creating user %q", nu.Username)
		}
	}

	for _, sg := range fx.Groups {
		if _, ok := cli.grpSvc.Create(ctx, sg.Owners, sg.Name, sg.Members); !ok {
			return errors.Errorf("creating group %q", sg.Name)
		}
	}
	fmt.Printf("Seeded %d users & %d groups\n", len(fx.Users), len(fx.Groups))
	return nil
}
