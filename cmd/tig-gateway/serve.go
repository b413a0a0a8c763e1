// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bureau-foundation/tig/feed"
	"github.com/bureau-foundation/tig/gateway"
	"github.com/bureau-foundation/tig/lib/credential"
	"github.com/bureau-foundation/tig/lib/eventbus"
	"github.com/bureau-foundation/tig/lib/version"
	"github.com/bureau-foundation/tig/status"
	"github.com/bureau-foundation/tig/stream"
	"github.com/bureau-foundation/tig/translate"
)

// connectTimeout bounds the wait for the stream's response headers. A
// connect that never answers would otherwise sit outside the stall
// timer.
const connectTimeout = 30 * time.Second

func runServe(ctx context.Context, options globalOptions) error {
	logger := newLogger(options.verbose)

	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}

	logger.Info("starting tig-gateway",
		"version", version.Info(),
		"listen", cfg.Listen.Address,
		"channel", cfg.Server.Channel,
	)

	credentials, err := credential.Load(cfg.Credentials.Path, cfg.Credentials.Identity)
	if err != nil {
		return err
	}
	defer credentials.Close()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = connectTimeout
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext

	client, err := feed.NewClient(feed.ClientConfig{
		StreamURL:   cfg.Feed.StreamURL,
		APIURL:      cfg.Feed.APIURL,
		Credentials: credentials,
		Compression: cfg.Feed.Compression,
		HTTPClient:  &http.Client{Transport: transport},
		Logger:      logger.With("component", "feed"),
	})
	if err != nil {
		return err
	}

	bus := eventbus.New[stream.Item](eventbus.DefaultMailboxSize)

	streamer, err := stream.New(stream.Config{
		Opener:     client,
		Bus:        bus,
		MaxBackoff: cfg.Feed.MaxBackoff,
		Logger:     logger.With("component", "stream"),
	})
	if err != nil {
		return err
	}

	server, err := gateway.NewServer(gateway.Config{
		Name:          cfg.Server.Name,
		Channel:       cfg.Server.Channel,
		ListenAddr:    cfg.Listen.Address,
		WebSocketAddr: cfg.Listen.WebSocketAddress,
		Bus:           bus,
		Feed:          client,
		Reconnector:   streamer,
		Translator:    &translate.Translator{Colors: cfg.Server.Colors},
		Logger:        logger.With("component", "gateway"),
	})
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer server.Stop()

	statusDone := make(chan struct{})
	if cfg.Listen.StatusSocket != "" {
		statusServer, err := status.NewServer(status.Config{
			SocketPath: cfg.Listen.StatusSocket,
			Snapshot:   func() status.Snapshot { return snapshot(streamer, bus, server) },
			Reconnect:  streamer.Reconnect,
			Logger:     logger.With("component", "status"),
		})
		if err != nil {
			return err
		}
		go func() {
			defer close(statusDone)
			if err := statusServer.Serve(ctx); err != nil {
				logger.Error("status socket failed", "error", err)
			}
		}()
	} else {
		close(statusDone)
	}

	err = streamer.Run(ctx)
	<-statusDone
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return fmt.Errorf("stream supervisor: %w", err)
}

func snapshot(streamer *stream.Streamer, bus *eventbus.Bus[stream.Item], server *gateway.Server) status.Snapshot {
	stats := streamer.Stats()
	clients, registered := server.Clients()
	return status.Snapshot{
		Version:     version.Info(),
		State:       stats.State.String(),
		Attempt:     stats.Attempt,
		Subscribers: bus.Len(),
		Clients:     clients,
		Registered:  registered,
		Published:   stats.Published,
		Duplicates:  stats.Duplicates,
		Malformed:   stats.Malformed,
		LastFrameAt: stats.LastFrameAt,
	}
}
