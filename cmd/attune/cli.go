package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/config"
	"github.com/hpungsan/attune/internal/contact"
	"github.com/hpungsan/attune/internal/errors"
	"github.com/hpungsan/attune/internal/ops"
	"github.com/hpungsan/attune/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc *ops.Service, cfg *config.Config, log *zap.Logger) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	app := &cli.App{
		Name:    "attune",
		Usage:   "Visitor personalization engine",
		Version: Version,
		Commands: []*cli.Command{
			profileCmd(svc),
			stateCmd(svc),
			questionsCmd(svc),
			themeCmd(svc),
			resetCmd(svc),
			onboardCmd(svc, cfg),
			serveCmd(svc, cfg, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// profileCmd groups the profile subcommands.
func profileCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage visitor profiles",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new visitor profile",
				Action: func(c *cli.Context) error {
					output, err := svc.CreateProfile()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List visitor profiles, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
				},
				Action: func(c *cli.Context) error {
					output, err := svc.ListProfiles(ops.ListProfilesInput{
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "show",
				Usage:     "Show a profile and its persisted values",
				ArgsUsage: "<profile-id>",
				Action: func(c *cli.Context) error {
					output, err := svc.GetProfile(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a profile and its stored preferences",
				ArgsUsage: "<profile-id>",
				Action: func(c *cli.Context) error {
					output, err := svc.DeleteProfile(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// stateCmd creates the state command.
func stateCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "state",
		Usage:     "Show a profile's preferences and onboarding step",
		ArgsUsage: "<profile-id>",
		Action: func(c *cli.Context) error {
			output, err := svc.GetState(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// questionsCmd creates the questions command.
func questionsCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "questions",
		Usage: "List the onboarding questions",
		Action: func(c *cli.Context) error {
			return outputJSON(svc.Questions())
		},
	}
}

// themeCmd groups the theme subcommands.
func themeCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Change a profile's theme",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Switch to a theme: calm, vibrant or focused",
				ArgsUsage: "<profile-id> <theme>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return outputError(errors.NewInvalidRequest("usage: attune theme set <profile-id> <theme>"))
					}
					output, err := svc.SwitchTheme(ops.ThemeInput{
						ProfileID: c.Args().Get(0),
						Theme:     c.Args().Get(1),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "cycle",
				Usage:     "Advance to the next theme",
				ArgsUsage: "<profile-id>",
				Action: func(c *cli.Context) error {
					output, err := svc.CycleTheme(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(svc *ops.Service) *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Restore default preferences so onboarding shows again",
		ArgsUsage: "<profile-id>",
		Action: func(c *cli.Context) error {
			output, err := svc.Reset(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// onboardCmd runs the onboarding questionnaire interactively.
func onboardCmd(svc *ops.Service, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "onboard",
		Usage:     "Answer the onboarding questions in the terminal",
		ArgsUsage: "[profile-id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "restart", Usage: "Reset the profile before starting"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				created, err := svc.CreateProfile()
				if err != nil {
					return outputError(err)
				}
				id = created.ID
			}
			if c.Bool("restart") {
				if _, err := svc.Reset(id); err != nil {
					return outputError(err)
				}
			}

			r := &onboardRunner{
				svc:        svc,
				wizard:     huhWizard{},
				wait:       sleepContext(c.Context),
				settle:     cfg.SettleDelay(),
				processing: cfg.ProcessingDelay(),
				out:        os.Stderr,
			}
			output, err := r.run(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd starts the personalization web UI.
func serveCmd(svc *ops.Service, cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the themed site and JSON API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: cfg.Bind, Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: cfg.Port, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			relay := contact.NewRelay(cfg.Contact, nil, log)
			if relay.DevMode() {
				log.Info("contact relay in development mode", zap.String("env", config.APIKeyEnv))
			}

			srv := web.NewServer(svc, relay, web.Options{
				Version:           Version,
				Bind:              c.String("bind"),
				Port:              c.Int("port"),
				Logger:            log,
				ProcessingRefresh: cfg.ProcessingDelay(),
			})
			return web.Run(ctx, srv, log)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.AttuneError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
