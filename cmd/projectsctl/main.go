// Command projectsctl runs operator tasks against the projects database.
//
//	projectsctl sync-users
//	projectsctl set-password -email a@x.com < password.txt
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	"github.com/yukikurage/projects-crm/internal/config"
	"github.com/yukikurage/projects-crm/internal/database"
	"github.com/yukikurage/projects-crm/internal/logger"
	"github.com/yukikurage/projects-crm/internal/repository"
	"github.com/yukikurage/projects-crm/internal/services"
)

const usage = `usage: projectsctl <command> [flags]

commands:
  sync-users      pull every agency CRM user into the local store
  set-password    store a local fallback password (read from -password or stdin)
`

var errUsage = errors.New("usage error")

// app holds the services a command needs.
type app struct {
	identity *services.IdentityService
	auth     *services.AuthService
}

type opener func(ctx context.Context) (*app, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, openApp)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, open opener) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "sync-users":
		fs := flag.NewFlagSet("sync-users", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}

		a, err := open(ctx)
		if err != nil {
			return err
		}
		result, err := a.identity.SyncAll(ctx)
		if err != nil {
			return fmt.Errorf("sync users (created %d before failing): %w", result.Created, err)
		}
		fmt.Fprintf(stdout, "fetched %d, created %d, skipped %d\n", result.Fetched, result.Created, result.Skipped)
		return nil

	case "set-password":
		fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		email := fs.String("email", "", "email of the local user")
		password := fs.String("password", "", "new password (read from stdin when empty)")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if strings.TrimSpace(*email) == "" {
			return fmt.Errorf("%w: -email is required", errUsage)
		}

		secret := *password
		if secret == "" {
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read password: %w", err)
			}
			secret = strings.TrimRight(line, "\r\n")
		}

		a, err := open(ctx)
		if err != nil {
			return err
		}
		if err := a.auth.SetLocalPassword(ctx, *email, secret); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "local password set for %s\n", *email)
		return nil
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func openApp(context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, "console", os.Stderr)

	db, err := database.Connect(cfg, log.Level(zerolog.WarnLevel))
	if err != nil {
		return nil, err
	}
	client, err := agencycrm.NewClient(cfg.AgencyCRMURL, cfg.AgencyCRMAPIKey, agencycrm.WithTimeout(cfg.AgencyCRMTimeout))
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(db)
	return &app{
		identity: services.NewIdentityService(users, client, nil, log),
		auth:     services.NewAuthService(users, client, nil, log),
	}, nil
}
