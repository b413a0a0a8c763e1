// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/tig/lib/codec"
)

const (
	dialTimeout         = 5 * time.Second
	responseReadTimeout = 15 * time.Second
	maxResponseSize     = 64 << 10
)

// Error is returned when the server answers ok=false.
type Error struct {
	Action  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("status: %s failed: %s", e.Action, e.Message)
}

// Query fetches a snapshot from the socket at socketPath.
func Query(ctx context.Context, socketPath string) (*Snapshot, error) {
	response, err := call(ctx, socketPath, ActionStatus)
	if err != nil {
		return nil, err
	}
	var snapshot Snapshot
	if err := codec.Unmarshal(response.Data, &snapshot); err != nil {
		return nil, fmt.Errorf("status: decoding snapshot: %w", err)
	}
	return &snapshot, nil
}

// Reconnect asks the gateway at socketPath to restart its stream.
func Reconnect(ctx context.Context, socketPath string) error {
	_, err := call(ctx, socketPath, ActionReconnect)
	return err
}

func call(ctx context.Context, socketPath, action string) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("status: connecting to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request{Action: action}); err != nil {
		return nil, fmt.Errorf("status: writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("status: reading response: %w", err)
	}
	if !response.OK {
		return nil, &Error{Action: action, Message: response.Error}
	}
	return &response, nil
}
