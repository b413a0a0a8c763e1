// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/tig/feed"
	"github.com/bureau-foundation/tig/gateway"
	"github.com/bureau-foundation/tig/lib/credential"
	"github.com/bureau-foundation/tig/lib/eventbus"
	"github.com/bureau-foundation/tig/lib/testutil"
	"github.com/bureau-foundation/tig/status"
	"github.com/bureau-foundation/tig/stream"
	"github.com/bureau-foundation/tig/translate"
)

const timeout = 10 * time.Second

// TestGatewayEndToEnd runs the full production wiring against a fake
// feed: the signed feed client, the stream supervisor, the event bus,
// the IRC server and the status socket. One IRC client registers, sees
// its last status as the topic, receives the timeline, posts a status,
// and forces a reconnect with "/me r".
//
// Timing budget: ~1s, the first backoff delay after the manual
// reconnect.
func TestGatewayEndToEnd(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.DiscardHandler)

	fake := newFakeFeed(t, "yesterday&#39;s post")

	credentials, err := credential.Parse([]byte(`{
		// comments are allowed
		"consumer_key": "ck",
		"consumer_secret": "cs",
		"access_token": "at",
		"access_token_secret": "ats",
	}`))
	if err != nil {
		t.Fatal(err)
	}
	defer credentials.Close()

	client, err := feed.NewClient(feed.ClientConfig{
		StreamURL:   fake.server.URL + "/1.1/user.json?replies=all",
		APIURL:      fake.server.URL + "/1.1",
		Credentials: credentials,
		HTTPClient:  fake.server.Client(),
		Logger:      logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	bus := eventbus.New[stream.Item](eventbus.DefaultMailboxSize)
	streamer, err := stream.New(stream.Config{Opener: client, Bus: bus, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	streamDone := make(chan error, 1)
	go func() { streamDone <- streamer.Run(ctx) }()

	server, err := gateway.NewServer(gateway.Config{
		ListenAddr:  "127.0.0.1:0",
		Bus:         bus,
		Feed:        client,
		Reconnector: streamer,
		Translator:  &translate.Translator{},
		Logger:      logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := server.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer server.Stop()

	socketPath := filepath.Join(testutil.SocketDir(t), "status.sock")
	statusServer, err := status.NewServer(status.Config{
		SocketPath: socketPath,
		Snapshot: func() status.Snapshot {
			stats := streamer.Stats()
			clients, registered := server.Clients()
			return status.Snapshot{
				State:       stats.State.String(),
				Attempt:     stats.Attempt,
				Subscribers: bus.Len(),
				Clients:     clients,
				Registered:  registered,
				Published:   stats.Published,
			}
		},
		Reconnect: streamer.Reconnect,
		Logger:    logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	statusDone := make(chan error, 1)
	go func() { statusDone <- statusServer.Serve(ctx) }()

	first := testutil.RequireReceive(t, fake.connections, timeout, "waiting for the first stream connection")

	connection, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer connection.Close()
	lines := testutil.NewLineReader(connection)
	send := func(line string) {
		t.Helper()
		if _, err := io.WriteString(connection, line+"\r\n"); err != nil {
			t.Fatalf("writing %q: %v", line, err)
		}
	}
	expect := func(want string) {
		t.Helper()
		if got := lines.Next(t, timeout); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}

	send("NICK alice")
	send("USER alice 0 * :Alice")
	expect(":tig 001 alice :Welcome to tig")
	expect(":alice!Alice@127.0.0.1 JOIN #timeline")
	expect(":tig MODE #timeline +mot alice")
	expect(":tig TOPIC #timeline :yesterday's post")

	// The snapshot and delete records are bookkeeping and never reach
	// the client.
	first.frames <- `{"friends":[1,2,3]}`
	first.frames <- `{"delete":{"status":{"id_str":"7","user_id_str":"9"}}}`
	first.frames <- ``
	first.frames <- `{"id_str":"10","text":"hello &amp; welcome","user":{"screen_name":"bob"}}`
	expect(":bob PRIVMSG #timeline :hello & welcome")

	first.frames <- `{"id_str":"11","text":"my own words","user":{"screen_name":"alice"}}`
	expect(":tig TOPIC #timeline :my own words")

	first.frames <- `{"event":"favorite","source":{"screen_name":"carol"},"target":{"screen_name":"alice"},` +
		`"target_object":{"id_str":"11","text":"my own words https://t.co/x","user":{"screen_name":"alice"},` +
		`"entities":{"urls":[{"url":"https://t.co/x","expanded_url":"https://example.com/x"}]}}}`
	expect(":carol PRIVMSG #timeline :Favorite => alice: my own words https://example.com/x https://twitter.com/carol")

	send("PRIVMSG #timeline :posted from irc")
	if text := testutil.RequireReceive(t, fake.posts, timeout, "waiting for the status post"); text != "posted from irc" {
		t.Fatalf("posted %q", text)
	}

	snapshot, err := status.Query(ctx, socketPath)
	if err != nil {
		t.Fatalf("status.Query: %v", err)
	}
	if snapshot.State != "streaming" || snapshot.Clients != 1 || snapshot.Registered != 1 || snapshot.Subscribers != 1 {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if snapshot.Published < 3 {
		t.Errorf("Published = %d, want at least 3", snapshot.Published)
	}

	send("PRIVMSG #timeline :\x01ACTION r\x01")
	expect(":tig NOTICE #timeline :Reconnecting stream")
	testutil.RequireClosed(t, first.ended, timeout, "first stream connection not closed on reconnect")
	second := testutil.RequireReceive(t, fake.connections, timeout, "waiting for the reconnected stream")

	// A record replayed after the reconnect is suppressed; a new one is
	// delivered.
	second.frames <- `{"id_str":"10","text":"hello &amp; welcome","user":{"screen_name":"bob"}}`
	second.frames <- `{"id_str":"12","text":"after the reconnect","user":{"screen_name":"bob"}}`
	expect(":bob PRIVMSG #timeline :after the reconnect")

	if err := status.Reconnect(ctx, socketPath); err != nil {
		t.Fatalf("status.Reconnect: %v", err)
	}
	expect(":tig NOTICE #timeline :Reconnecting stream")
	testutil.RequireClosed(t, second.ended, timeout, "second stream connection not closed on reconnect")
	testutil.RequireReceive(t, fake.connections, timeout, "waiting for the third stream connection")

	send("QUIT")
	line := lines.Next(t, timeout)
	if !strings.HasPrefix(line, "ERROR :Closing Link: 127.0.0.1") {
		t.Fatalf("got %q after QUIT", line)
	}

	cancel()
	if err := testutil.RequireReceive(t, streamDone, timeout, "waiting for the streamer to stop"); err != context.Canceled {
		t.Errorf("streamer.Run = %v, want context.Canceled", err)
	}
	if err := testutil.RequireReceive(t, statusDone, timeout, "waiting for the status socket to stop"); err != nil {
		t.Errorf("status Serve = %v", err)
	}
}
