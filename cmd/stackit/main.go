// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command stackit is a terminal client for the StackIt API.
//
//	stackit register --username alice --email alice@example.com --password secret
//	stackit login --email alice@example.com --password secret
//	stackit questions [--tag go]
//	stackit show <question-id>
//	stackit vote <question-id> up|down [--answer <answer-id>]
//	stackit accept <answer-id>
//	stackit notifications [--unread] [--mark-read]
//	stackit flag <question-id> [--answer <answer-id>]
//	stackit flags
//	stackit delete <question-id> [--answer <answer-id>]
//	stackit whoami
//	stackit logout
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("stackit", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	AddFlags(flags)

	cfg, err := ParseFlags(flags, args)
	if err != nil {
		return err
	}
	if len(cfg.Args) == 0 {
		flags.Usage()
		return errors.New("a command is required")
	}

	app, err := newApp(cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.dispatch(ctx, cfg.Args[0], cfg.Args[1:])
}
