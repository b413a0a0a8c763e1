// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sample struct {
	State   string    `cbor:"state"`
	Attempt int       `cbor:"attempt"`
	At      time.Time `cbor:"at"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	value := map[string]int{"zulu": 1, "alpha": 2, "mike": 3}
	first, err := Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding differs between calls: %x vs %x", first, again)
		}
	}
}

func TestStreamRoundTripIgnoresUnknownFields(t *testing.T) {
	type wider struct {
		sample
		Extra string `cbor:"extra"`
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var buffer bytes.Buffer
	if err := NewEncoder(&buffer).Encode(wider{sample{"streaming", 2, at}, "ignored"}); err != nil {
		t.Fatal(err)
	}

	var decoded sample
	if err := NewDecoder(&buffer).Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.State != "streaming" || decoded.Attempt != 2 || !decoded.At.Equal(at) {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"subscribers": 3})
	if err != nil {
		t.Fatal(err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]int{"attempt": 4})
	if err != nil {
		t.Fatal(err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(notation, `"attempt": 4`) {
		t.Fatalf("Diagnose = %s", notation)
	}
}
