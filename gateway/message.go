// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"strings"
)

// ErrEmptyMessage is returned by ParseMessage for a line with no command.
var ErrEmptyMessage = errors.New("gateway: message has no command")

// Message is one protocol line: [:prefix ]COMMAND params...
type Message struct {
	Prefix  string
	Command string
	Params  []string
}

// ParseMessage tokenizes a line without its terminator. The command is
// upper-cased. A parameter starting with ':' takes the rest of the line.
func ParseMessage(line string) (Message, error) {
	var message Message
	line = strings.TrimLeft(line, " ")
	if strings.HasPrefix(line, ":") {
		prefix, rest, found := strings.Cut(line[1:], " ")
		if !found {
			return Message{}, ErrEmptyMessage
		}
		message.Prefix = prefix
		line = strings.TrimLeft(rest, " ")
	}

	command, rest, _ := strings.Cut(line, " ")
	if command == "" {
		return Message{}, ErrEmptyMessage
	}
	message.Command = strings.ToUpper(command)

	for {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if rest[0] == ':' {
			message.Params = append(message.Params, rest[1:])
			break
		}
		var param string
		param, rest, _ = strings.Cut(rest, " ")
		message.Params = append(message.Params, param)
	}
	return message, nil
}

// String renders the message without a terminator. The final parameter
// is prefixed with ':' when it is empty, contains a space, or itself
// starts with ':'.
func (m Message) String() string {
	var builder strings.Builder
	if m.Prefix != "" {
		builder.WriteByte(':')
		builder.WriteString(m.Prefix)
		builder.WriteByte(' ')
	}
	builder.WriteString(m.Command)
	for index, param := range m.Params {
		builder.WriteByte(' ')
		if index == len(m.Params)-1 && (param == "" || strings.Contains(param, " ") || param[0] == ':') {
			builder.WriteByte(':')
		}
		builder.WriteString(param)
	}
	return builder.String()
}

// Param returns the i-th parameter or "".
func (m Message) Param(i int) string {
	if i < len(m.Params) {
		return m.Params[i]
	}
	return ""
}
