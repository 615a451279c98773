// Command witty boots a witty application directory and serves it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/taoyuan/witty"
	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/server"
	"github.com/taoyuan/witty/transport"
)

// options holds the parsed command line.
type options struct {
	dir       string
	address   string
	port      int
	env       string
	logLevel  string
	logFormat string
	health    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args, boots the application and serves it until ctx is done.
func run(ctx context.Context, outW io.Writer, args []string) error {
	opts, err := parse(outW, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	logger := middleware.NewSlogLogger(outW, opts.logLevel, opts.logFormat)

	appOpts := []witty.Option{witty.WithLogger(logger)}
	if opts.env != "" {
		appOpts = append(appOpts, witty.WithSetting("env", opts.env))
	}
	if opts.address != "" {
		appOpts = append(appOpts, witty.WithSetting("address", opts.address))
	}
	if opts.port != 0 {
		appOpts = append(appOpts, witty.WithSetting("port", opts.port))
	}
	app := witty.New(appOpts...)

	logger.Info("booting application",
		middleware.F("dir", opts.dir),
		middleware.F("env", app.Env()),
	)

	var httpOpts []transport.HTTPOption
	if opts.health != "" {
		httpOpts = append(httpOpts, transport.WithHealthPath(opts.health))
	}

	err = witty.Boot(ctx, app, witty.BootOptions{Dir: opts.dir}, witty.HTTPServer("", httpOpts...))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func parse(outW io.Writer, args []string) (*options, error) {
	fs := flag.NewFlagSet("witty", flag.ContinueOnError)
	fs.SetOutput(outW)

	opts := &options{}
	fs.StringVar(&opts.dir, "app", ".", "load app at `directory`")
	fs.StringVar(&opts.address, "address", "", "listen on `address` (default: setting or 0.0.0.0)")
	fs.IntVar(&opts.port, "port", 0, "listen on `port` (default: setting or 3000)")
	fs.StringVar(&opts.env, "env", os.Getenv(server.EnvVar), "run in `environment` (default: development)")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&opts.health, "health", "", "serve a health check at `path`")
	fs.Usage = func() {
		fmt.Fprintln(outW, "Usage: witty [flags]")
		fmt.Fprintln(outW)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}
