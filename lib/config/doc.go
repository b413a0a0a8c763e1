// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the tig
// gateway.
//
// Configuration comes from a single file named by either the TIG_CONFIG
// environment variable (via [Load]) or a --config flag (via [LoadFile]).
// Values in the file are layered over [Default]. With no file at all the
// defaults apply, which listen on 127.0.0.1:${PORT:-16668}.
//
// ${VAR} and ${VAR:-default} patterns are expanded in address and path
// fields after loading.
package config
