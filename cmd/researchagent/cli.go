package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"ResearchAgent/internal/app"
	"ResearchAgent/internal/apperr"
	"ResearchAgent/internal/config"
	"ResearchAgent/internal/logging"
	"ResearchAgent/internal/usecase"
)

// newCLIApp creates the CLI application with all commands. JSON output goes to out.
func newCLIApp(out io.Writer) *cli.App {
	application := &cli.App{
		Name:    "researchagent",
		Usage:   "Fetch URLs, summarize them with an LLM and keep the results",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"RESEARCH_AGENT_CONFIG"}, Usage: "Path to a YAML config file"},
		},
		Commands: []*cli.Command{
			serveCmd(),
			submitCmd(out),
			listCmd(out),
			getCmd(out),
			settingsCmd(out),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	application.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return application
}

// withApp builds the application from the --config flag, runs fn and closes it.
func withApp(c *cli.Context, quiet bool, fn func(ctx context.Context, a *app.Application) error) error {
	cfg := config.LoadFrom(c.String("config"))

	level := cfg.Logging.Level
	if quiet {
		// One-shot commands print JSON on stdout; keep logs out of it.
		level = "error"
	}
	logger := logging.NewWithWriter(c.App.ErrWriter, level, cfg.Logging.Format)

	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return outputError(err)
	}
	defer a.Close()

	return fn(c.Context, a)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the watchlist scheduler",
		Action: func(c *cli.Context) error {
			return withApp(c, false, func(ctx context.Context, a *app.Application) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if err := a.Serve(ctx); err != nil {
					return outputError(err)
				}
				return nil
			})
		},
	}
}

func submitCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Research a URL and store the result",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(apperr.NewInvalidRequest("exactly one url is required"))
			}
			return withApp(c, true, func(ctx context.Context, a *app.Application) error {
				output, err := a.Pipeline.Submit(ctx, c.Args().First())
				if err != nil {
					return outputError(err)
				}
				return outputJSON(out, output)
			})
		},
	}
}

func listCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored results, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 50, Usage: "Maximum number of results (max 50)"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, true, func(ctx context.Context, a *app.Application) error {
				results, err := a.Pipeline.ListResults(ctx, c.Int("limit"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(out, results)
			})
		},
	}
}

func getCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one stored result",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil || id <= 0 {
				return outputError(apperr.NewInvalidRequest("id must be a positive integer"))
			}
			return withApp(c, true, func(ctx context.Context, a *app.Application) error {
				result, err := a.Pipeline.GetResult(ctx, id)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(out, result)
			})
		},
	}
}

func settingsCmd(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change the API key and calendar flag",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show settings (the key itself is never printed)",
				Action: func(c *cli.Context) error {
					return withApp(c, true, func(ctx context.Context, a *app.Application) error {
						view, err := a.Settings.Show(ctx)
						if err != nil {
							return outputError(err)
						}
						return outputJSON(out, view)
					})
				},
			},
			{
				Name:  "set",
				Usage: "Update settings; unset flags keep their value",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-key", Usage: "LLM API key (empty string clears it)"},
					&cli.BoolFlag{Name: "calendar", Usage: "Enable calendar export"},
				},
				Action: func(c *cli.Context) error {
					var upd usecase.SettingsUpdate
					if c.IsSet("api-key") {
						key := c.String("api-key")
						upd.APIKey = &key
					}
					if c.IsSet("calendar") {
						enabled := c.Bool("calendar")
						upd.CalendarEnabled = &enabled
					}
					return withApp(c, true, func(ctx context.Context, a *app.Application) error {
						view, err := a.Settings.Update(ctx, upd)
						if err != nil {
							return outputError(err)
						}
						return outputJSON(out, view)
					})
				},
			},
		},
	}
}

func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
