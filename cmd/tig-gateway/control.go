// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tig/lib/codec"
	"github.com/bureau-foundation/tig/status"
)

// socketPath resolves the status socket from --socket or the config.
func socketPath(options globalOptions, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cfg, err := loadConfig(options)
	if err != nil {
		return "", err
	}
	if cfg.Listen.StatusSocket == "" {
		return "", errors.New("listen.status_socket is not configured; pass --socket")
	}
	return cfg.Listen.StatusSocket, nil
}

func runStatus(ctx context.Context, options globalOptions, args []string) error {
	var override string
	var raw bool
	flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
	flagSet.StringVar(&override, "socket", "", "status socket path (default: listen.status_socket)")
	flagSet.BoolVar(&raw, "raw", false, "print the snapshot in CBOR diagnostic notation")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	path, err := socketPath(options, override)
	if err != nil {
		return err
	}
	snapshot, err := status.Query(ctx, path)
	if err != nil {
		return err
	}

	if raw {
		encoded, err := codec.Marshal(snapshot)
		if err != nil {
			return err
		}
		diagnostic, err := codec.Diagnose(encoded)
		if err != nil {
			return err
		}
		fmt.Println(diagnostic)
		return nil
	}
	printSnapshot(os.Stdout, snapshot, time.Now())
	return nil
}

func printSnapshot(w io.Writer, snapshot *status.Snapshot, now time.Time) {
	lastFrame := "never"
	if !snapshot.LastFrameAt.IsZero() {
		lastFrame = humanize.RelTime(snapshot.LastFrameAt, now, "ago", "from now")
	}
	fmt.Fprintf(w, "version:     %s\n", snapshot.Version)
	fmt.Fprintf(w, "stream:      %s (attempt %d)\n", snapshot.State, snapshot.Attempt)
	fmt.Fprintf(w, "last frame:  %s\n", lastFrame)
	fmt.Fprintf(w, "published:   %s (%s duplicates, %s malformed)\n",
		humanize.Comma(int64(snapshot.Published)),
		humanize.Comma(int64(snapshot.Duplicates)),
		humanize.Comma(int64(snapshot.Malformed)))
	fmt.Fprintf(w, "clients:     %d (%d registered, %d subscribed)\n",
		snapshot.Clients, snapshot.Registered, snapshot.Subscribers)
}

func runReconnect(ctx context.Context, options globalOptions, args []string) error {
	var override string
	flagSet := pflag.NewFlagSet("reconnect", pflag.ContinueOnError)
	flagSet.StringVar(&override, "socket", "", "status socket path (default: listen.status_socket)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	path, err := socketPath(options, override)
	if err != nil {
		return err
	}
	if err := status.Reconnect(ctx, path); err != nil {
		return err
	}
	fmt.Println("reconnect requested")
	return nil
}
