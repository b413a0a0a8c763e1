// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tig/lib/credential"
	"github.com/bureau-foundation/tig/lib/sealed"
	"github.com/bureau-foundation/tig/lib/secret"
)

// runSeal encrypts a plaintext credentials file. The plaintext is parsed
// first so a typo is caught before it is sealed away.
func runSeal(args []string) error {
	var recipients []string
	var output string
	flagSet := pflag.NewFlagSet("seal", pflag.ContinueOnError)
	flagSet.StringArrayVarP(&recipients, "recipient", "r", nil, "age recipient (age1...); repeatable")
	flagSet.StringVarP(&output, "output", "o", "", "write the sealed file here instead of stdout")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: tig-gateway seal --recipient age1... [--output FILE] CREDENTIALS")
	}
	if len(recipients) == 0 {
		return errors.New("seal: at least one --recipient is required")
	}

	sealedData, err := sealFile(flagSet.Arg(0), recipients)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = os.Stdout.Write(sealedData)
		return err
	}
	if err := os.WriteFile(output, sealedData, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	return nil
}

func sealFile(path string, recipients []string) ([]byte, error) {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	defer secret.Zero(plaintext)

	set, err := credential.Parse(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set.Close()

	return sealed.Encrypt(plaintext, recipients)
}

// runKeygen writes a new age identity and prints its recipient.
func runKeygen(args []string) error {
	var output string
	flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	flagSet.StringVarP(&output, "output", "o", "", "identity file to create (required)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if output == "" {
		return errors.New("keygen: --output is required")
	}

	recipient, err := writeIdentity(output)
	if err != nil {
		return err
	}
	fmt.Println(recipient)
	return nil
}

func writeIdentity(path string) (string, error) {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return "", err
	}
	defer keypair.Close()

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating identity file: %w", err)
	}
	if _, err := file.Write(keypair.PrivateKey.Bytes()); err != nil {
		file.Close()
		return "", fmt.Errorf("writing identity file: %w", err)
	}
	if _, err := file.WriteString("\n"); err != nil {
		file.Close()
		return "", fmt.Errorf("writing identity file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("writing identity file: %w", err)
	}
	return keypair.PublicKey, nil
}
