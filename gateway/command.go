// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"fmt"
	"strings"
)

// Command is a typed client command.
type Command interface {
	command()
}

// NickCommand sets the session nick.
type NickCommand struct {
	Nickname string
}

// UserCommand carries the USER fields. Mode and Unused are accepted and
// ignored.
type UserCommand struct {
	Username string
	Mode     string
	Unused   string
	Realname string
}

// PrivmsgCommand is a message to a target.
type PrivmsgCommand struct {
	Target string
	Text   string
}

// PingCommand asks for a PONG echoing Token.
type PingCommand struct {
	Token string
}

// QuitCommand ends the session.
type QuitCommand struct {
	Reason string
}

// UnknownCommand is any command the gateway does not handle.
type UnknownCommand struct {
	Message Message
}

func (NickCommand) command()    {}
func (UserCommand) command()    {}
func (PrivmsgCommand) command() {}
func (PingCommand) command()    {}
func (QuitCommand) command()    {}
func (UnknownCommand) command() {}

// ParseCommand converts a tokenized message into a typed command. A known
// command with too few parameters is an error.
func ParseCommand(message Message) (Command, error) {
	switch message.Command {
	case "NICK":
		if message.Param(0) == "" {
			return nil, fmt.Errorf("NICK: no nickname given")
		}
		return NickCommand{Nickname: message.Params[0]}, nil

	case "USER":
		if len(message.Params) < 4 {
			return nil, fmt.Errorf("USER: need 4 parameters, got %d", len(message.Params))
		}
		return UserCommand{
			Username: message.Params[0],
			Mode:     message.Params[1],
			Unused:   message.Params[2],
			Realname: message.Params[3],
		}, nil

	case "PRIVMSG":
		if len(message.Params) < 2 {
			return nil, fmt.Errorf("PRIVMSG: need target and text")
		}
		return PrivmsgCommand{Target: message.Params[0], Text: message.Params[1]}, nil

	case "PING":
		return PingCommand{Token: message.Param(0)}, nil

	case "QUIT":
		return QuitCommand{Reason: message.Param(0)}, nil
	}
	return UnknownCommand{Message: message}, nil
}

const ctcpDelimiter = "\x01"

// ctcp splits a CTCP-quoted text into its verb and argument. The closing
// delimiter is optional.
func ctcp(text string) (verb, argument string, ok bool) {
	if !strings.HasPrefix(text, ctcpDelimiter) {
		return "", "", false
	}
	body := strings.TrimSuffix(text[1:], ctcpDelimiter)
	verb, argument, _ = strings.Cut(body, " ")
	return strings.ToUpper(verb), argument, true
}

// isReconnectAction reports whether an ACTION body requests a reconnect.
func isReconnectAction(argument string) bool {
	argument = strings.TrimSpace(argument)
	return strings.EqualFold(argument, "r") || strings.EqualFold(argument, "reconnect")
}
