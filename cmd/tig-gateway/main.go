// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tig-gateway presents a Twitter user stream as an IRC channel.
//
// Clients connect with any IRC client, register with NICK and USER, and
// are joined to the timeline channel. Lines sent to the channel are
// posted as statuses; "/me r" restarts the stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tig/lib/config"
	"github.com/bureau-foundation/tig/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are accepted before any subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

func run(args []string) error {
	var options globalOptions
	var showVersion bool

	flagSet := pflag.NewFlagSet("tig-gateway", pflag.ContinueOnError)
	flagSet.StringVarP(&options.configPath, "config", "c", "", "path to the YAML config (default: $"+config.EnvVar+", else built-in defaults)")
	flagSet.BoolVarP(&options.verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(flagSet)
		return nil
	}
	if showVersion {
		fmt.Printf("tig-gateway %s\n", version.Full())
		return nil
	}

	command := "serve"
	rest := flagSet.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "serve":
		if len(rest) > 0 {
			return fmt.Errorf("serve: unexpected argument %q", rest[0])
		}
		return runServe(ctx, options)
	case "status":
		return runStatus(ctx, options, rest)
	case "reconnect":
		return runReconnect(ctx, options, rest)
	case "seal":
		return runSeal(rest)
	case "keygen":
		return runKeygen(rest)
	default:
		printUsage(flagSet)
		return fmt.Errorf("unknown command %q", command)
	}
}

// loadConfig reads --config if given, else falls back to the
// environment, and validates the result.
func loadConfig(options globalOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if options.configPath != "" {
		cfg, err = config.LoadFile(options.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tig-gateway - Twitter timeline as an IRC channel

USAGE
    tig-gateway [flags] [command]

COMMANDS
    serve        Run the gateway (default)
    status       Print the running gateway's status
    reconnect    Ask the running gateway to restart its stream
    seal         Encrypt a credentials file to an age recipient
    keygen       Generate an age identity for sealed credentials

FLAGS
%s`, flagSet.FlagUsages())
}
