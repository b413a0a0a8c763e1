// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package translate

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/tig/feed"
	"github.com/bureau-foundation/tig/lib/clock"
)

// Message is a translated event.
type Message struct {
	// Origin is the handle of the user the message is attributed to.
	Origin string

	// Text is the display text. It never contains CR or LF.
	Text string

	// Self is set when Origin is the viewer.
	Self bool
}

// Translator renders events. The zero value renders plain text against
// the real clock.
type Translator struct {
	// Colors wraps template labels in mIRC color 10.
	Colors bool

	// Clock supplies "now" for relative ages. Nil means clock.Real().
	Clock clock.Clock
}

// Translate renders event for viewer. It reports false for events with
// no display form: bookkeeping records and unhandled action kinds.
func (t *Translator) Translate(event feed.Event, viewer string) (Message, bool) {
	var message Message
	switch event := event.(type) {
	case *feed.Action:
		text, ok := t.action(event)
		if !ok {
			return Message{}, false
		}
		message = Message{Origin: event.Source.ScreenName, Text: text}

	case *feed.DirectMessage:
		message = Message{
			Origin: event.Sender.ScreenName,
			Text:   render(event.Text, event.Entities),
		}

	case *feed.Status:
		message = Message{
			Origin: event.User.ScreenName,
			Text:   t.status(resolve(event)),
		}

	default:
		return Message{}, false
	}

	message.Origin = sanitize(message.Origin)
	message.Self = message.Origin != "" && message.Origin == viewer
	return message, true
}

func (t *Translator) action(event *feed.Action) (string, bool) {
	var label string
	withObject := false
	switch event.Event {
	case feed.ActionBlock:
		label = "Block"
	case feed.ActionUnblock:
		label = "Unblock"
	case feed.ActionFavorite:
		label, withObject = "Favorite", true
	case feed.ActionUnfavorite:
		label, withObject = "Unfavorite", true
	case feed.ActionFollow:
		label = "Follow"
	case feed.ActionUnfollow:
		label = "Unfollow"
	case feed.ActionListMemberAdded:
		label = "Listed"
	case feed.ActionListMemberRemoved:
		label = "Unlisted"
	default:
		// list_created, user_update, quoted_tweet and anything newer
		// have no display form.
		return "", false
	}

	var builder strings.Builder
	builder.WriteString(t.label(label + " =>"))
	builder.WriteString(" ")
	builder.WriteString(sanitize(event.Target.ScreenName))
	if withObject && event.TargetObject != nil {
		object := resolve(event.TargetObject)
		builder.WriteString(": ")
		builder.WriteString(render(object.Text, object.Entities))
	}
	builder.WriteString(" https://twitter.com/")
	builder.WriteString(sanitize(event.Source.ScreenName))
	return builder.String(), true
}

func (t *Translator) status(status *feed.Status) string {
	retweet := status.RetweetedStatus
	quote := status.QuotedStatus
	if quote == nil && retweet != nil {
		quote = retweet.QuotedStatus
	}

	switch {
	case retweet != nil && quote != nil:
		return t.label("♺") + " " + sanitize(retweet.User.ScreenName) + ": " +
			render(retweet.Text, retweet.Entities) + " " +
			t.label(">>") + " @" + sanitize(quote.User.ScreenName) + ": " +
			render(quote.Text, quote.Entities) + " " +
			t.label("["+t.age(retweet)+"]")

	case retweet != nil:
		return t.label("♺") + " " + sanitize(retweet.User.ScreenName) + ": " +
			render(retweet.Text, retweet.Entities) + " " +
			t.label("["+t.age(retweet)+"]")

	case quote != nil:
		return render(status.Text, status.Entities) + " " +
			t.label(">>") + " @" + sanitize(quote.User.ScreenName) + ": " +
			render(quote.Text, quote.Entities)

	default:
		return render(status.Text, status.Entities)
	}
}

func (t *Translator) age(status *feed.Status) string {
	if status.CreatedAt.IsZero() {
		return "unknown"
	}
	now := t.Clock
	if now == nil {
		now = clock.Real()
	}
	return humanize.RelTime(status.CreatedAt.Time, now.Now(), "ago", "from now")
}

func (t *Translator) label(text string) string {
	if !t.Colors {
		return text
	}
	return "\x0310" + text + "\x0f"
}

// resolve returns status with extended text applied at every level. The
// input is left untouched.
func resolve(status *feed.Status) *feed.Status {
	if status == nil {
		return nil
	}
	resolved := *status
	if status.ExtendedText != nil {
		resolved.Text = status.ExtendedText.FullText
		resolved.Entities = status.ExtendedText.Entities
		resolved.ExtendedText = nil
	}
	resolved.QuotedStatus = resolve(status.QuotedStatus)
	resolved.RetweetedStatus = resolve(status.RetweetedStatus)
	return &resolved
}

// render expands links in text and sanitizes the result.
func render(text string, entities feed.Entities) string {
	return sanitize(ExpandURLs(text, entities))
}

// ExpandURLs replaces every occurrence of each url and media entity's
// short link with its expanded form.
func ExpandURLs(text string, entities feed.Entities) string {
	for _, group := range [][]feed.URLEntity{entities.URLs, entities.Media} {
		for _, entity := range group {
			if entity.URL == "" || entity.ExpandedURL == "" {
				continue
			}
			text = strings.ReplaceAll(text, entity.URL, entity.ExpandedURL)
		}
	}
	return text
}

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ", "\x00", "")

// htmlEntities undoes the escaping the feed applies to text. Other entity
// names pass through so that query strings like "&param=" survive.
var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// sanitize unescapes HTML entities, strips terminal escape sequences and
// flattens the text to one line.
func sanitize(text string) string {
	text = htmlEntities.Replace(text)
	text = ansi.Strip(text)
	return lineBreaks.Replace(text)
}
