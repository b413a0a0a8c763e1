// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts and decrypts the gateway's credentials file
// with age (filippo.io/age).
//
// Operators who do not want the four OAuth secrets sitting in plaintext
// on disk encrypt the JSONC credentials file to an x25519 recipient
// (`tig-gateway seal`) and point the configuration at the matching
// identity file. Both binary and ASCII-armored ciphertext are accepted
// on decryption; [Encrypt] produces armored output so the file survives
// copy and paste.
//
// Identities and decrypted plaintext are returned as [secret.Buffer]
// values.
package sealed
