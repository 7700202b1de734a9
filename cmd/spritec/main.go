package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"spritec/common"
	"spritec/config"
	"spritec/misc"
	"spritec/state"
)

// initializeAppContext prepares application context after command line has
// been parsed, before command runs.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, help will be shown
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// secrets are masked by Dump
		if data, err := config.Dump(env.Cfg); err == nil {
			name := "config/active.yaml"
			if len(configFile) > 0 {
				name = "config/" + filepath.Base(configFile)
			}
			env.Rpt.StoreData(name, data)
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()

	// log is synced, from now on errors go to stderr directly
	if er := env.Rpt.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
	}

	// remove empty panic log
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Errors returned by commands are logged once here instead of urfave/cli
// default handling.
var errWasHandled bool

// called before application context is destroyed
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

// frameworkFlag overrides configured target framework.
var frameworkFlag = &cli.StringFlag{
	Name:    "framework",
	Aliases: []string{"f"},
	Usage:   "target `FRAMEWORK` (supported: " + strings.Join(common.FrameworkNames(), ", ") + "), overrides configuration",
}

func framework(cmd *cli.Command, env *state.LocalEnv) (common.Framework, error) {
	if name := cmd.String("framework"); name != "" {
		return common.ParseFramework(name)
	}
	return env.Cfg.Site.Framework, nil
}

func main() {
	// interrupt cancels fetches in flight
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "compiles published site components into UI framework code",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "pull",
				Usage:        "Downloads site with everything it links to and saves it as a new version",
				OnUsageError: usageErrorHandler,
				Action:       runPull,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "stable", Usage: "point \"stable\" symlink to `VERSION`, overrides configuration"},
				},
				ArgsUsage: "[URL]",
				CustomHelpTemplate: fmt.Sprintf(`%s
URL:
    entry document of the published site, if absent - site.source_url (or site.url) from configuration

Version directory is created under site.directory, its name comes from
data-version attribute of the document body ("trunk" when absent). The
"latest" symlink always points to the version just saved.
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "build:typed-definition",
				Aliases:      []string{"typedefs"},
				Usage:        "Writes typed prop declarations for every saved version",
				OnUsageError: usageErrorHandler,
				Action:       runTypedDefinitions,
				Flags:        []cli.Flag{frameworkFlag},
			},
			{
				Name:         "compile",
				Usage:        "Compiles components of markup document into framework code",
				OnUsageError: usageErrorHandler,
				Action:       runCompile,
				Flags: []cli.Flag{
					frameworkFlag,
					&cli.BoolFlag{Name: "typed", Aliases: []string{"t"}, Usage: "produce typed prop declarations instead of code"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "recompile every time source or its local stylesheets change"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to markup document, usually sprite.html from one of the saved versions

DESTINATION:
    file to write result to, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "versions",
				Usage:        "Lists saved versions with their last pull",
				OnUsageError: usageErrorHandler,
				Action:       runVersions,
			},
			{
				Name:         "serve",
				Usage:        "Serves compiled components and resources of saved versions over HTTP",
				OnUsageError: usageErrorHandler,
				Action:       runServe,
				Flags: []cli.Flag{
					frameworkFlag,
					&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Usage: "listen on `ADDRESS`, overrides configuration"},
				},
				CustomHelpTemplate: fmt.Sprintf(`%s
ENDPOINTS:
    GET /versions                        saved versions, "latest" and "stable" targets (JSON)
    GET /{version}/sprite.js             components compiled for the framework
    GET /{version}/sprite.html.d.ts      typed prop declarations
    GET /{version}/{file}                saved resource as is

Version may be "latest" or "stable". Sources are compiled on every request.
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "dump",
				Usage:        "Prints parsed tree of markup document or stylesheet",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "markup", Aliases: []string{"m"}, Usage: "print parsed input back as markup instead of a tree"},
				},
				OnUsageError: usageErrorHandler,
				Action:       runDump,
				ArgsUsage:    "SOURCE",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to markup document or stylesheet (.css), or http(s) URL of a site -
    in this case site is downloaded and every document is printed bundled
    with its stylesheets, followed by style rules matching each component
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// os.Exit is called at the end of main to set exit code, there must be
	// no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			// log may not be ready yet or already closed
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}
