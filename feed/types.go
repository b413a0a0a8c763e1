// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the Event union.
type Kind int

const (
	KindUnknown Kind = iota
	KindStatus
	KindAction
	KindDirectMessage
	KindSnapshot
	KindDeletion
	KindDisconnect
	KindWarning
	KindLimit
)

var kindNames = [...]string{
	KindUnknown:       "unknown",
	KindStatus:        "status",
	KindAction:        "action",
	KindDirectMessage: "direct_message",
	KindSnapshot:      "snapshot",
	KindDeletion:      "deletion",
	KindDisconnect:    "disconnect",
	KindWarning:       "warning",
	KindLimit:         "limit",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Visible reports whether events of this kind are fanned out to
// clients.
func (k Kind) Visible() bool {
	return k == KindStatus || k == KindAction || k == KindDirectMessage
}

// Event is one classified stream record.
type Event interface {
	Kind() Kind
}

// Timestamp decodes the feed's created_at format
// ("Wed Aug 27 13:08:45 +0000 2008").
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts the feed's string format or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		return nil
	}
	parsed, err := time.Parse(time.RubyDate, value)
	if err != nil {
		return fmt.Errorf("parsing created_at %q: %w", value, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes the same format back.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RubyDate) + `"`), nil
}

// User is the subset of a user object the gateway reads.
type User struct {
	ScreenName string `json:"screen_name"`
	Name       string `json:"name,omitempty"`

	// Status is the user's most recent status. Only populated by user
	// lookups.
	Status *Status `json:"status,omitempty"`
}

// URLEntity maps a shortened link in a text to its original target.
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
}

// Entities holds the link entities of a text.
type Entities struct {
	URLs  []URLEntity `json:"urls,omitempty"`
	Media []URLEntity `json:"media,omitempty"`
}

// ExtendedText is the untruncated form of a long status.
type ExtendedText struct {
	FullText string   `json:"full_text"`
	Entities Entities `json:"entities"`
}

// Status is a posted message, possibly quoting or re-sharing another.
type Status struct {
	ID              string        `json:"id_str,omitempty"`
	Text            string        `json:"text"`
	User            User          `json:"user"`
	Entities        Entities      `json:"entities"`
	ExtendedText    *ExtendedText `json:"extended_tweet,omitempty"`
	QuotedStatus    *Status       `json:"quoted_status,omitempty"`
	RetweetedStatus *Status       `json:"retweeted_status,omitempty"`
	CreatedAt       Timestamp     `json:"created_at"`
}

func (*Status) Kind() Kind { return KindStatus }

// Action is a social-graph event such as a favorite or follow.
type Action struct {
	Event        string    `json:"event"`
	Source       User      `json:"source"`
	Target       User      `json:"target"`
	TargetObject *Status   `json:"target_object,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
}

func (*Action) Kind() Kind { return KindAction }

// Action kinds with a display template.
const (
	ActionBlock             = "block"
	ActionUnblock           = "unblock"
	ActionFavorite          = "favorite"
	ActionUnfavorite        = "unfavorite"
	ActionFollow            = "follow"
	ActionUnfollow          = "unfollow"
	ActionListMemberAdded   = "list_member_added"
	ActionListMemberRemoved = "list_member_removed"
)

// DirectMessage is a private message addressed to the viewer.
type DirectMessage struct {
	ID        string    `json:"id_str,omitempty"`
	Sender    User      `json:"sender"`
	Text      string    `json:"text"`
	Entities  Entities  `json:"entities"`
	CreatedAt Timestamp `json:"created_at"`
}

func (*DirectMessage) Kind() Kind { return KindDirectMessage }

// Snapshot is the friends list sent at the start of a stream.
type Snapshot struct {
	Friends []int64
}

func (*Snapshot) Kind() Kind { return KindSnapshot }

// Deletion announces that a status was removed.
type Deletion struct {
	StatusID string
	UserID   string
}

func (*Deletion) Kind() Kind { return KindDeletion }

// Disconnect is sent by the feed just before it closes the stream.
type Disconnect struct {
	Code       int    `json:"code"`
	StreamName string `json:"stream_name"`
	Reason     string `json:"reason"`
}

func (*Disconnect) Kind() Kind { return KindDisconnect }

// Warning reports that the consumer is falling behind.
type Warning struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	PercentFull int    `json:"percent_full"`
}

func (*Warning) Kind() Kind { return KindWarning }

// Limit reports how many matching records were withheld.
type Limit struct {
	Track int64 `json:"track"`
}

func (*Limit) Kind() Kind { return KindLimit }

// Unknown is a well-formed record of no recognized shape.
type Unknown struct{}

func (*Unknown) Kind() Kind { return KindUnknown }
