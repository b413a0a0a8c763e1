// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted by [Load].
const EnvVar = "TIG_CONFIG"

// Config is the gateway configuration.
type Config struct {
	Listen      ListenConfig      `yaml:"listen"`
	Server      ServerConfig      `yaml:"server"`
	Feed        FeedConfig        `yaml:"feed"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// ListenConfig holds listener bindings.
type ListenConfig struct {
	// Address is the TCP address for IRC clients.
	Address string `yaml:"address"`

	// WebSocketAddress, when set, serves the same protocol over
	// WebSocket at /irc.
	WebSocketAddress string `yaml:"websocket_address"`

	// StatusSocket, when set, is the Unix socket for the status and
	// reconnect control actions.
	StatusSocket string `yaml:"status_socket"`
}

// ServerConfig controls how the gateway presents itself to clients.
type ServerConfig struct {
	// Name is the server prefix on numerics and notices.
	Name string `yaml:"name"`

	// Channel is the single timeline channel clients are joined to.
	Channel string `yaml:"channel"`

	// Colors wraps action labels in mIRC color codes.
	Colors bool `yaml:"colors"`
}

// FeedConfig points at the remote feed.
type FeedConfig struct {
	StreamURL string `yaml:"stream_url"`
	APIURL    string `yaml:"api_url"`

	// MaxBackoff caps the exponential reconnect delay.
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// Compression requests a gzip-encoded stream.
	Compression bool `yaml:"compression"`
}

// CredentialsConfig locates the OAuth secrets.
type CredentialsConfig struct {
	// Path is the JSONC credentials file.
	Path string `yaml:"path"`

	// Identity, when set, is an age identity file used to decrypt Path.
	Identity string `yaml:"identity"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Address: "127.0.0.1:${PORT:-16668}",
		},
		Server: ServerConfig{
			Name:    "tig",
			Channel: "#timeline",
		},
		Feed: FeedConfig{
			StreamURL:  "https://userstream.twitter.com/1.1/user.json?replies=all",
			APIURL:     "https://api.twitter.com/1.1",
			MaxBackoff: 320 * time.Second,
		},
		Credentials: CredentialsConfig{
			Path: "${HOME}/.config/tig/credentials.jsonc",
		},
	}
}

// Load reads the file named by TIG_CONFIG. When the variable is unset
// the expanded defaults are returned.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads the YAML file at path over the defaults and expands
// variables. It does not validate; call [Config.Validate].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	c.Listen.Address = expandVars(c.Listen.Address)
	c.Listen.WebSocketAddress = expandVars(c.Listen.WebSocketAddress)
	c.Listen.StatusSocket = expandVars(c.Listen.StatusSocket)
	c.Feed.StreamURL = expandVars(c.Feed.StreamURL)
	c.Feed.APIURL = expandVars(c.Feed.APIURL)
	c.Credentials.Path = expandVars(c.Credentials.Path)
	c.Credentials.Identity = expandVars(c.Credentials.Identity)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. An unset or empty
// variable takes the default, or the empty string.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen.Address == "" {
		errs = append(errs, fmt.Errorf("listen.address is required"))
	}
	if c.Server.Name == "" || strings.ContainsAny(c.Server.Name, " \r\n") {
		errs = append(errs, fmt.Errorf("server.name must be a non-empty token, got %q", c.Server.Name))
	}
	if !strings.HasPrefix(c.Server.Channel, "#") || strings.ContainsAny(c.Server.Channel, " ,\r\n") {
		errs = append(errs, fmt.Errorf("server.channel must start with # and contain no spaces or commas, got %q", c.Server.Channel))
	}
	for name, value := range map[string]string{
		"feed.stream_url": c.Feed.StreamURL,
		"feed.api_url":    c.Feed.APIURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an http(s) URL, got %q", name, value))
		}
	}
	if c.Feed.MaxBackoff < time.Second {
		errs = append(errs, fmt.Errorf("feed.max_backoff must be at least 1s, got %s", c.Feed.MaxBackoff))
	}
	if c.Credentials.Path == "" {
		errs = append(errs, fmt.Errorf("credentials.path is required"))
	}

	return errors.Join(errs...)
}
