package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/five82/summit/internal/app"
)

// Streams are the process streams commands read from and write to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process's standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type globalFlags struct {
	config   string
	prefs    string
	envFile  string
	apiURL   string
	logLevel string
}

type command struct {
	ctx     context.Context
	streams Streams
	global  globalFlags
}

type runFunc func(c *command, args []string) error

var commands = map[string]runFunc{
	"register":   runRegister,
	"login":      runLogin,
	"logout":     runLogout,
	"rotate-key": runRotateKey,
	"whoami":     runWhoami,
	"config":     runConfig,
	"health":     runHealth,
	"submit":     runSubmit,
	"watch":      runWatch,
	"status":     runStatus,
	"result":     runResult,
	"export":     runExport,
	"retry":      runRetry,
	"cancel":     runCancel,
	"history":    runHistory,
	"logs":       runLogs,
	"tui":        runTUI,
}

// Run parses global flags and dispatches to a command.
func Run(ctx context.Context, args []string, streams Streams) error {
	fs := flag.NewFlagSet("summit", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	g := globalFlags{}
	fs.StringVar(&g.config, "config", "", "config file path (default ~/.config/summit/config.toml)")
	fs.StringVar(&g.prefs, "prefs", "", "preferences file path (default ~/.config/summit/prefs.toml)")
	fs.StringVar(&g.envFile, "env-file", "", "dotenv file to load (default ./.env)")
	fs.StringVar(&g.apiURL, "api-url", "", "override the API endpoint")
	fs.StringVar(&g.logLevel, "log-level", "", "debug|info|warn|error")
	fs.Usage = func() { printRootUsage(streams.Err, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printRootUsage(streams.Out, fs)
		return nil
	}

	name := rest[0]
	if name == "help" {
		printRootUsage(streams.Out, fs)
		return nil
	}
	run, ok := commands[name]
	if !ok {
		printRootUsage(streams.Err, fs)
		return fmt.Errorf("unknown command %q", name)
	}
	return run(&command{ctx: ctx, streams: streams, global: g}, rest[1:])
}

func printRootUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "summit: track AI Summary jobs from the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  summit [global flags] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account:")
	fmt.Fprintln(w, "  register <user>   create an account and sign in")
	fmt.Fprintln(w, "  login <user>      sign in and store the API key")
	fmt.Fprintln(w, "  logout            forget the stored API key")
	fmt.Fprintln(w, "  rotate-key        replace the API key with a fresh one")
	fmt.Fprintln(w, "  whoami            show the signed-in user")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Jobs:")
	fmt.Fprintln(w, "  submit            submit a YouTube URL or a media file and track it")
	fmt.Fprintln(w, "  watch <id>        re-attach to a job and track it")
	fmt.Fprintln(w, "  status <id>       print one status poll")
	fmt.Fprintln(w, "  result <id>       print a finished job's result")
	fmt.Fprintln(w, "  export <id>       download a rendered result (md, pdf, docx)")
	fmt.Fprintln(w, "  retry <id>        requeue a failed job and track it")
	fmt.Fprintln(w, "  cancel <id>       stop a queued or running job")
	fmt.Fprintln(w, "  history           list recent jobs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  config            show effective configuration and server limits")
	fmt.Fprintln(w, "  health            probe the server")
	fmt.Fprintln(w, "  logs              show the client log")
	fmt.Fprintln(w, "  tui               interactive tracker")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func (c *command) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.streams.Err)
	return fs
}

func (c *command) open() (*app.App, error) {
	return app.Open(c.ctx, app.Options{
		ConfigPath: c.global.config,
		PrefsPath:  c.global.prefs,
		EnvFile:    c.global.envFile,
		APIURL:     c.global.apiURL,
		LogLevel:   c.global.logLevel,
	})
}

func (c *command) printf(format string, args ...any) {
	fmt.Fprintf(c.streams.Out, format, args...)
}

func (c *command) println(args ...any) {
	fmt.Fprintln(c.streams.Out, args...)
}

func (c *command) warnf(format string, args ...any) {
	fmt.Fprintf(c.streams.Err, format, args...)
}

// parseArgs parses flags that may appear before or after positional
// arguments, returning the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func requireID(name string, positional []string) (string, error) {
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		return "", fmt.Errorf("usage: summit %s <job-id>", name)
	}
	return strings.TrimSpace(positional[0]), nil
}
