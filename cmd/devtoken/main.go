// Command devtoken mints a dashboard token for local development and smoke
// tests. Production tokens come from the login service, which signs with the
// same secret.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spec-kit/ticketbot/internal/auth"
	"github.com/spec-kit/ticketbot/internal/config"
)

type request struct {
	UserID string
	Grants []auth.GuildGrant
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	req, err := parseArgs(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expires, err := tokens.GenerateToken(req.UserID, req.Grants)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// parseArgs reads --user and one --guild per guild. A guild is written as
// id[:role,role][:admin].
func parseArgs(args []string) (request, error) {
	var (
		userID string
		guilds []string
	)
	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.StringVar(&userID, "user", "", "user id the token is issued to")
	flagSet.StringArrayVar(&guilds, "guild", nil, "guild grant as id[:role,role][:admin]; repeatable")
	if err := flagSet.Parse(args); err != nil {
		return request{}, err
	}
	if userID == "" {
		return request{}, errors.New("--user is required")
	}
	if len(guilds) == 0 {
		return request{}, errors.New("at least one --guild is required")
	}

	req := request{UserID: userID}
	for _, g := range guilds {
		grant, err := parseGrant(g)
		if err != nil {
			return request{}, err
		}
		req.Grants = append(req.Grants, grant)
	}
	return req, nil
}

func parseGrant(s string) (auth.GuildGrant, error) {
	parts := strings.Split(s, ":")
	if parts[0] == "" || len(parts) > 3 {
		return auth.GuildGrant{}, fmt.Errorf("invalid guild grant %q", s)
	}
	grant := auth.GuildGrant{ID: parts[0]}
	for _, p := range parts[1:] {
		switch {
		case p == "admin":
			grant.Admin = true
		case p != "":
			grant.RoleIDs = append(grant.RoleIDs, strings.Split(p, ",")...)
		}
	}
	return grant, nil
}
