// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeFeed is an HTTP stand-in for the streaming and REST endpoints.
// Every stream connection is announced on connections; the test pushes
// frames into it and observes its end.
type fakeFeed struct {
	server      *httptest.Server
	connections chan *streamConnection
	posts       chan string
	lastStatus  string
}

type streamConnection struct {
	frames chan string
	ended  chan struct{}
}

func newFakeFeed(t *testing.T, lastStatus string) *fakeFeed {
	t.Helper()
	feed := &fakeFeed{
		connections: make(chan *streamConnection, 8),
		posts:       make(chan string, 8),
		lastStatus:  lastStatus,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /1.1/user.json", feed.handleStream)
	mux.HandleFunc("GET /1.1/users/show.json", feed.handleShowUser)
	mux.HandleFunc("POST /1.1/statuses/update.json", feed.handleUpdate)
	feed.server = httptest.NewServer(mux)
	t.Cleanup(feed.server.Close)
	return feed
}

func (f *fakeFeed) handleStream(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
		http.Error(w, "unsigned", http.StatusUnauthorized)
		return
	}
	connection := &streamConnection{frames: make(chan string, 16), ended: make(chan struct{})}
	defer close(connection.ended)

	flusher := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	f.connections <- connection

	for {
		select {
		case frame := <-connection.frames:
			if _, err := io.WriteString(w, frame+"\r\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (f *fakeFeed) handleShowUser(w http.ResponseWriter, r *http.Request) {
	screenName := r.URL.Query().Get("screen_name")
	json.NewEncoder(w).Encode(map[string]any{
		"screen_name": screenName,
		"status": map[string]any{
			"id_str": "1",
			"text":   f.lastStatus,
		},
	})
}

func (f *fakeFeed) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text := r.PostForm.Get("status")
	f.posts <- text
	json.NewEncoder(w).Encode(map[string]any{"id_str": "2", "text": text})
}
