// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"encoding/json"
	"fmt"
)

// shape holds just enough of a record to classify it. Fields are raw so
// that a record is fully decoded only once, into its own type.
type shape struct {
	Text          string          `json:"text"`
	Event         string          `json:"event"`
	DirectMessage json.RawMessage `json:"direct_message"`
	Friends       []int64         `json:"friends"`
	Delete        *struct {
		Status struct {
			ID     string `json:"id_str"`
			UserID string `json:"user_id_str"`
		} `json:"status"`
	} `json:"delete"`
	Disconnect *Disconnect `json:"disconnect"`
	Warning    *Warning    `json:"warning"`
	Limit      *Limit      `json:"limit"`
}

// ParseRecord decodes and classifies one stream record. Records with a
// non-empty text or event are a Status or Action respectively; a
// direct_message wrapper is a DirectMessage. The error is non-nil only
// for malformed JSON or a record that is not an object.
func ParseRecord(data []byte) (Event, error) {
	var probe shape
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	switch {
	case probe.Event != "":
		action := &Action{}
		if err := json.Unmarshal(data, action); err != nil {
			return nil, fmt.Errorf("decoding %s event: %w", probe.Event, err)
		}
		return action, nil

	case probe.Text != "":
		status := &Status{}
		if err := json.Unmarshal(data, status); err != nil {
			return nil, fmt.Errorf("decoding status: %w", err)
		}
		return status, nil

	case len(probe.DirectMessage) > 0 && string(probe.DirectMessage) != "null":
		message := &DirectMessage{}
		if err := json.Unmarshal(probe.DirectMessage, message); err != nil {
			return nil, fmt.Errorf("decoding direct message: %w", err)
		}
		return message, nil

	case probe.Friends != nil:
		return &Snapshot{Friends: probe.Friends}, nil

	case probe.Delete != nil:
		return &Deletion{StatusID: probe.Delete.Status.ID, UserID: probe.Delete.Status.UserID}, nil

	case probe.Disconnect != nil:
		return probe.Disconnect, nil

	case probe.Warning != nil:
		return probe.Warning, nil

	case probe.Limit != nil:
		return probe.Limit, nil
	}
	return &Unknown{}, nil
}
