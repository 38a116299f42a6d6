package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
)

// ErrUsage is returned for a missing or unknown subcommand.
var ErrUsage = errors.New("invalid usage")

type command struct {
	name  string
	email string
}

func parseCommand(args []string) (command, error) {
	if len(args) != 2 {
		return command{}, fmt.Errorf("%w: expected a command and an email", ErrUsage)
	}
	switch args[0] {
	case "activate", "deactivate", "reset-token":
	default:
		return command{}, fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	email := strings.TrimSpace(args[1])
	if email == "" {
		return command{}, fmt.Errorf("%w: email cannot be empty", ErrUsage)
	}
	return command{name: args[0], email: email}, nil
}

func (c command) execute(ctx context.Context, users service.UserService, out io.Writer) error {
	user, err := users.GetUserByEmail(ctx, c.email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no user with email %s", c.email)
		}
		return err
	}

	switch c.name {
	case "activate", "deactivate":
		active := c.name == "activate"
		if err := users.SetActive(ctx, user.ID, active); err != nil {
			return err
		}
		state := "inactive"
		if active {
			state = "active"
		}
		_, err = fmt.Fprintf(out, "user %s (%s) is now %s\n", user.Email, user.ID, state)
		return err

	case "reset-token":
		token, err := users.IssuePasswordReset(ctx, user.ID)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\nexpires at %s\n", token.Token, token.ExpiresAt.UTC().Format(time.RFC3339))
		return err
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, c.name)
}
