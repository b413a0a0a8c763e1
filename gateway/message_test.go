// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		line string
		want Message
	}{
		{"NICK alice", Message{Command: "NICK", Params: []string{"alice"}}},
		{"nick alice", Message{Command: "NICK", Params: []string{"alice"}}},
		{"USER alice 0 * :Alice Smith", Message{Command: "USER", Params: []string{"alice", "0", "*", "Alice Smith"}}},
		{":alice!a@host PRIVMSG #timeline :hello world", Message{Prefix: "alice!a@host", Command: "PRIVMSG", Params: []string{"#timeline", "hello world"}}},
		{"PRIVMSG #timeline :\x01ACTION r\x01", Message{Command: "PRIVMSG", Params: []string{"#timeline", "\x01ACTION r\x01"}}},
		{"PING", Message{Command: "PING"}},
		{"PING  token  ", Message{Command: "PING", Params: []string{"token"}}},
		{"TOPIC #timeline :", Message{Command: "TOPIC", Params: []string{"#timeline", ""}}},
		{"PRIVMSG #timeline ::-)", Message{Command: "PRIVMSG", Params: []string{"#timeline", ":-)"}}},
	}
	for _, test := range tests {
		got, err := ParseMessage(test.line)
		if err != nil {
			t.Errorf("ParseMessage(%q): %v", test.line, err)
			continue
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("ParseMessage(%q) = %#v, want %#v", test.line, got, test.want)
		}
	}
}

func TestParseMessageEmpty(t *testing.T) {
	for _, line := range []string{"", "   ", ":prefixonly", ":prefix   "} {
		if _, err := ParseMessage(line); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("ParseMessage(%q) error = %v, want ErrEmptyMessage", line, err)
		}
	}
}

func TestMessageString(t *testing.T) {
	tests := []struct {
		message Message
		want    string
	}{
		{Message{Prefix: "tig", Command: "001", Params: []string{"alice", "Welcome to tig"}}, ":tig 001 alice :Welcome to tig"},
		{Message{Prefix: "alice!Alice@127.0.0.1", Command: "JOIN", Params: []string{"#timeline"}}, ":alice!Alice@127.0.0.1 JOIN #timeline"},
		{Message{Prefix: "tig", Command: "MODE", Params: []string{"#timeline", "+mot", "alice"}}, ":tig MODE #timeline +mot alice"},
		{Message{Prefix: "tig", Command: "TOPIC", Params: []string{"#timeline", ""}}, ":tig TOPIC #timeline :"},
		{Message{Prefix: "bob", Command: "PRIVMSG", Params: []string{"#timeline", ":)"}}, ":bob PRIVMSG #timeline ::)"},
		{Message{Prefix: "bob", Command: "PRIVMSG", Params: []string{"#timeline", "single"}}, ":bob PRIVMSG #timeline single"},
		{Message{Command: "ERROR", Params: []string{"Closing Link: host (Quit)"}}, "ERROR :Closing Link: host (Quit)"},
	}
	for _, test := range tests {
		if got := test.message.String(); got != test.want {
			t.Errorf("String() = %q, want %q", got, test.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	message := Message{Prefix: "bob", Command: "PRIVMSG", Params: []string{"#timeline", ":leading colon and spaces"}}
	parsed, err := ParseMessage(message.String())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(parsed, message) {
		t.Fatalf("round trip = %#v, want %#v", parsed, message)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{"NICK alice", NickCommand{Nickname: "alice"}, false},
		{"NICK", nil, true},
		{"USER alice 0 * :Alice Smith", UserCommand{Username: "alice", Mode: "0", Unused: "*", Realname: "Alice Smith"}, false},
		{"USER alice 0 *", nil, true},
		{"PRIVMSG #timeline :hi there", PrivmsgCommand{Target: "#timeline", Text: "hi there"}, false},
		{"PRIVMSG #timeline", nil, true},
		{"PING :abc def", PingCommand{Token: "abc def"}, false},
		{"QUIT :gone", QuitCommand{Reason: "gone"}, false},
		{"QUIT", QuitCommand{}, false},
	}
	for _, test := range tests {
		message, err := ParseMessage(test.line)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ParseCommand(message)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseCommand(%q) succeeded", test.line)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCommand(%q): %v", test.line, err)
			continue
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("ParseCommand(%q) = %#v, want %#v", test.line, got, test.want)
		}
	}

	message, _ := ParseMessage("WHOIS alice")
	if command, err := ParseCommand(message); err != nil {
		t.Fatal(err)
	} else if _, ok := command.(UnknownCommand); !ok {
		t.Errorf("WHOIS parsed as %T", command)
	}
}

func TestCTCP(t *testing.T) {
	tests := []struct {
		text     string
		verb     string
		argument string
		ok       bool
	}{
		{"\x01ACTION r\x01", "ACTION", "r", true},
		{"\x01ACTION reconnect", "ACTION", "reconnect", true},
		{"\x01action waves hello\x01", "ACTION", "waves hello", true},
		{"\x01VERSION\x01", "VERSION", "", true},
		{"plain text", "", "", false},
	}
	for _, test := range tests {
		verb, argument, ok := ctcp(test.text)
		if verb != test.verb || argument != test.argument || ok != test.ok {
			t.Errorf("ctcp(%q) = (%q, %q, %v)", test.text, verb, argument, ok)
		}
	}
}

func TestIsReconnectAction(t *testing.T) {
	for _, argument := range []string{"r", "R", "reconnect", "RECONNECT", " Reconnect "} {
		if !isReconnectAction(argument) {
			t.Errorf("%q not recognized", argument)
		}
	}
	for _, argument := range []string{"", "waves", "rr", "reconnecting", "r now"} {
		if isReconnectAction(argument) {
			t.Errorf("%q wrongly recognized", argument)
		}
	}
}
