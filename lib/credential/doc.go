// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential loads the OAuth 1.0a secrets used to sign feed
// requests.
//
// The credentials file is JSONC (JSON with comments and trailing
// commas):
//
//	{
//	  // application keys
//	  "consumer_key": "...",
//	  "consumer_secret": "...",
//	  // user tokens
//	  "access_token": "...",
//	  "access_token_secret": "...",
//	}
//
// When an age identity file is supplied the credentials file is
// expected to be age-encrypted; see lib/sealed.
package credential
