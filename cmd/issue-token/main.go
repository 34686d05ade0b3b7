// Command issue-token prints a signed access token for local testing.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"hours-ledger/internal/model"
	"hours-ledger/internal/service"

	"github.com/spf13/viper"
)

type options struct {
	UserID    string
	Role      string
	ManagerID string
	TTL       time.Duration
	Secret    string
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.UserID, "user", "alice", "user id")
	fs.StringVar(&o.Role, "role", string(model.RoleEmployee), "role (employee|manager|admin)")
	fs.StringVar(&o.ManagerID, "manager", "", "manager id of an employee")
	fs.DurationVar(&o.TTL, "ttl", time.Hour, "token lifetime")
	fs.StringVar(&o.Secret, "secret", "", "signing secret (default $JWT_SECRET)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.Secret == "" {
		v := viper.New()
		v.AutomaticEnv()
		o.Secret = v.GetString("JWT_SECRET")
	}
	return o, nil
}

func issue(o options, out io.Writer) error {
	role, err := model.ParseRole(o.Role)
	if err != nil {
		return err
	}
	id := model.Identity{UserID: o.UserID, Role: role}
	if o.ManagerID != "" {
		id.ManagerID = &o.ManagerID
	}
	token, err := service.IssueAccessToken(o.Secret, id, o.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", token)
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err == nil {
		err = issue(o, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue-token: %v\n", err)
		os.Exit(1)
	}
}
