// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/TVWIT/invintus-sync/internal/models"
)

// ErrNoEvent signals that a webhook delivery carried no event payload at
// all. Missing individual fields never produce an error.
var ErrNoEvent = errors.New("event payload is missing")

// blockClass marks every wrapped body fragment so downstream renderers
// can style imported content uniformly.
const blockClass = "invintus-block"

// playerEmbedFormat is prepended to every record body; the data attribute
// carries the numeric remote event ID for the embedded player.
const playerEmbedFormat = `<div class="invintus-player" data-event-id="%s"></div>`

// startDateTimeLayouts are tried in order when parsing the scheduled
// start. The vendor usually sends the space-separated form but RFC3339
// shows up in replayed deliveries.
var startDateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// blockFragmentRe matches bare <p>, <ul>, and <ol> fragments (with or
// without attributes) in the remote description.
var blockFragmentRe = regexp.MustCompile(`(?s)<p(?:\s[^>]*)?>.*?</p>|<ul(?:\s[^>]*)?>.*?</ul>|<ol(?:\s[^>]*)?>.*?</ol>`)

// slugInvalidRe collapses everything outside [a-z0-9] into hyphens.
var slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)

// Normalizer maps a raw remote event into a canonical local record.
// It is deterministic given the event and the injected clock, and has
// no side effects.
type Normalizer struct {
	mapper *StatusMapper
	now    func() time.Time
}

// NewNormalizer creates a normalizer. A nil clock defaults to
// time.Now; tests inject a fixed clock.
func NewNormalizer(mapper *StatusMapper, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{mapper: mapper, now: now}
}

// Normalize converts a remote event into a local record. Category
// descriptors are NOT resolved here; the caller passes them to the
// category reconciler, which needs store context.
//
// Lifecycle state is the status mapper's output, overridden in order:
// a scheduled start strictly after "now" forces future, and private
// forces private regardless of everything else.
func (n *Normalizer) Normalize(event *models.RemoteEvent) (*models.LocalRecord, error) {
	if event == nil {
		return nil, ErrNoEvent
	}

	eventID := event.NumericID()
	title := Transliterate(event.Title)

	state := n.mapper.Map(event.EventStatus)
	startAt, startOK := parseStartDateTime(event.StartDateTime)
	if startOK && startAt.After(n.now()) {
		state = models.StateFuture
	}
	if event.Private {
		state = models.StatePrivate
	}

	record := &models.LocalRecord{
		RemoteEventID: eventID,
		Title:         title,
		Slug:          Slugify(title) + "-" + eventID,
		Body:          buildBody(event.Description, eventID),
		State:         state,
		CustomID:      event.CustomID,
		Description:   event.Description,
		Caption:       event.Caption,
		Thumbnail:     event.Thumbnail,
		Audio:         event.AudioURL,
		Location:      event.LocationName,
		TotalRuntime:  event.TotalRunTime,
		Tags:          append([]string(nil), event.Keywords...),
	}
	if startOK {
		record.PublishedAt = startAt
	}

	return record, nil
}

// parseStartDateTime parses the scheduled start against the known
// layouts. Malformed values report false, never an error; the naive
// layout is read as UTC.
func parseStartDateTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range startDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// buildBody wraps bare block fragments from the remote description and
// prepends the player-embed marker for the event.
func buildBody(description, eventID string) string {
	embed := fmt.Sprintf(playerEmbedFormat, eventID)

	body := blockFragmentRe.ReplaceAllStringFunc(description, func(fragment string) string {
		return `<div class="` + blockClass + `">` + fragment + `</div>`
	})

	if body == "" {
		return embed
	}
	return embed + "\n" + body
}

// Transliterate strips diacritics and non-representable characters,
// yielding a plain-text-safe form of the input. Decomposes to NFD,
// drops combining marks, recomposes, then drops anything outside the
// printable ASCII range.
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Slugify lowercases the input and collapses every run of characters
// outside [a-z0-9] into a single hyphen.
func Slugify(s string) string {
	s = strings.ToLower(Transliterate(s))
	s = slugInvalidRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
