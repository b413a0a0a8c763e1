// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/tig/lib/sealed"
	"github.com/bureau-foundation/tig/lib/secret"
)

// Set holds the four OAuth secrets. Close releases them.
type Set struct {
	ConsumerKey       *secret.Buffer
	ConsumerSecret    *secret.Buffer
	AccessToken       *secret.Buffer
	AccessTokenSecret *secret.Buffer
}

// fileContent is the on-disk shape. Values exist on the heap only while
// Parse runs.
type fileContent struct {
	ConsumerKey       string `json:"consumer_key"`
	ConsumerSecret    string `json:"consumer_secret"`
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
}

// Load reads the credentials file at path. If identityPath is non-empty
// the file is decrypted with the age identity stored there first.
func Load(path, identityPath string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	defer secret.Zero(data)

	if identityPath == "" {
		if sealed.IsArmored(data) {
			return nil, fmt.Errorf("credentials file %s is age-encrypted but no identity is configured", path)
		}
		return Parse(data)
	}

	identity, err := secret.ReadFile(identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading age identity: %w", err)
	}
	defer identity.Close()

	plaintext, err := sealed.Decrypt(data, identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials %s: %w", path, err)
	}
	defer plaintext.Close()

	return Parse(plaintext.Bytes())
}

// Parse decodes JSONC credentials. All four fields are required.
func Parse(data []byte) (*Set, error) {
	stripped := jsonc.ToJSON(append([]byte(nil), data...))
	defer secret.Zero(stripped)

	var content fileContent
	if err := json.Unmarshal(stripped, &content); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	var missing []error
	for _, field := range []struct{ name, value string }{
		{"consumer_key", content.ConsumerKey},
		{"consumer_secret", content.ConsumerSecret},
		{"access_token", content.AccessToken},
		{"access_token_secret", content.AccessTokenSecret},
	} {
		if field.value == "" {
			missing = append(missing, fmt.Errorf("%s is required", field.name))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("credentials: %w", errors.Join(missing...))
	}

	set := &Set{}
	var err error
	if set.ConsumerKey, err = secret.NewFromBytes([]byte(content.ConsumerKey)); err != nil {
		set.Close()
		return nil, err
	}
	if set.ConsumerSecret, err = secret.NewFromBytes([]byte(content.ConsumerSecret)); err != nil {
		set.Close()
		return nil, err
	}
	if set.AccessToken, err = secret.NewFromBytes([]byte(content.AccessToken)); err != nil {
		set.Close()
		return nil, err
	}
	if set.AccessTokenSecret, err = secret.NewFromBytes([]byte(content.AccessTokenSecret)); err != nil {
		set.Close()
		return nil, err
	}
	return set, nil
}

// Close releases every secret. Safe on a partially built Set.
func (s *Set) Close() error {
	var errs []error
	for _, buffer := range []*secret.Buffer{s.ConsumerKey, s.ConsumerSecret, s.AccessToken, s.AccessTokenSecret} {
		if buffer != nil {
			errs = append(errs, buffer.Close())
		}
	}
	return errors.Join(errs...)
}
