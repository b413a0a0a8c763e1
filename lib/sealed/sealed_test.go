// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"strings"
	"testing"

	"filippo.io/age"

	"github.com/bureau-foundation/tig/lib/secret"
)

func TestEncryptDecryptArmored(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Fatalf("PublicKey = %q, want age1 prefix", keypair.PublicKey)
	}

	plaintext := []byte(`{"consumer_key": "ck"}`)
	ciphertext, err := Encrypt(plaintext, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !IsArmored(ciphertext) {
		t.Fatalf("Encrypt output is not armored: %q", ciphertext)
	}

	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer decrypted.Close()
	if decrypted.String() != `{"consumer_key": "ck"}` {
		t.Fatalf("decrypted = %q", decrypted.String())
	}
}

func TestDecryptBinary(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, identity.Recipient())
	if err != nil {
		t.Fatal(err)
	}
	writer.Write([]byte("binary payload"))
	writer.Close()

	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		t.Fatal(err)
	}
	defer privateKey.Close()

	decrypted, err := Decrypt(ciphertext.Bytes(), privateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer decrypted.Close()
	if decrypted.String() != "binary payload" {
		t.Fatalf("decrypted = %q", decrypted.String())
	}
}

func TestDecryptWrongIdentity(t *testing.T) {
	sender, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()
	other, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()

	ciphertext, err := Encrypt([]byte("x"), []string{sender.PublicKey})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(ciphertext, other.PrivateKey); err == nil {
		t.Fatal("Decrypt with the wrong identity succeeded")
	}
}

func TestEncryptRequiresRecipient(t *testing.T) {
	if _, err := Encrypt([]byte("x"), nil); err == nil {
		t.Fatal("expected error without recipients")
	}
	if _, err := Encrypt([]byte("x"), []string{"not-a-key"}); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}

func TestIsArmored(t *testing.T) {
	if !IsArmored([]byte("\n  -----BEGIN AGE ENCRYPTED FILE-----\nabc\n")) {
		t.Fatal("armored input not detected")
	}
	if IsArmored([]byte("age-encryption.org/v1\n")) {
		t.Fatal("binary header detected as armored")
	}
}
