// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package normalize

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/TVWIT/invintus-sync/internal/models"
)

// fixedNow is the injected clock for all normalizer tests.
var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(NewStatusMapper(nil, nil, nil), func() time.Time { return fixedNow })
}

func TestStatusMapperClassification(t *testing.T) {
	mapper := NewStatusMapper(nil, nil, nil)

	tests := []struct {
		status string
		want   models.LifecycleState
	}{
		{"live", models.StateLive},
		{"onBreak", models.StateLive},
		{"disconnected", models.StateLive},
		{"break", models.StateLive},
		{"on break", models.StateLive},
		{"new", models.StateFuture},
		{"available", models.StateFuture},
		{"published", models.StatePublish},
		{"archived", models.StateDraft},
		{"", models.StateDraft},
		{"LIVE", models.StateDraft}, // case-sensitive exact match
		{"Published", models.StateDraft},
	}

	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			if got := mapper.Map(tt.status); got != tt.want {
				t.Errorf("Map(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestStatusMapperExtensions(t *testing.T) {
	mapper := NewStatusMapper([]string{"broadcasting"}, []string{"scheduled"}, []string{"archived"})

	if got := mapper.Map("broadcasting"); got != models.StateLive {
		t.Errorf("extended live status = %q", got)
	}
	if got := mapper.Map("scheduled"); got != models.StateFuture {
		t.Errorf("extended future status = %q", got)
	}
	if got := mapper.Map("archived"); got != models.StatePublish {
		t.Errorf("extended publish status = %q", got)
	}
	// Built-ins survive extension.
	if got := mapper.Map("live"); got != models.StateLive {
		t.Errorf("built-in live status = %q", got)
	}
}

func TestNormalizeNilEvent(t *testing.T) {
	_, err := newTestNormalizer().Normalize(nil)
	if !errors.Is(err, ErrNoEvent) {
		t.Errorf("expected ErrNoEvent, got %v", err)
	}
}

func TestNormalizeExtractsNumericID(t *testing.T) {
	tests := []struct {
		eventID string
		want    string
	}{
		{"abc_42", "42"},
		{"tvw_2026_99", "99"},
		{"42", "42"},
		{"", ""},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		record, err := n.Normalize(&models.RemoteEvent{EventID: tt.eventID})
		if err != nil {
			t.Fatal(err)
		}
		if record.RemoteEventID != tt.want {
			t.Errorf("eventID %q: got %q, want %q", tt.eventID, record.RemoteEventID, tt.want)
		}
	}
}

func TestNormalizeSlugEndsWithEventID(t *testing.T) {
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
		EventID: "abc_42",
		Title:   "Town Hall",
	})
	if err != nil {
		t.Fatal(err)
	}
	if record.Slug != "town-hall-42" {
		t.Errorf("slug = %q, want town-hall-42", record.Slug)
	}
	if !strings.HasSuffix(record.Slug, "-42") {
		t.Errorf("slug must end with the numeric event ID: %q", record.Slug)
	}
}

func TestNormalizeTransliteratesTitle(t *testing.T) {
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
		EventID: "x_7",
		Title:   "Sénat – Café Crème",
	})
	if err != nil {
		t.Fatal(err)
	}
	if record.Title != "Senat  Cafe Creme" {
		t.Errorf("title = %q", record.Title)
	}
	if record.Slug != "senat-cafe-creme-7" {
		t.Errorf("slug = %q", record.Slug)
	}
}

func TestNormalizeBodyWrapsFragmentsAndPrependsPlayer(t *testing.T) {
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
		EventID:     "x_42",
		Description: "<p>Agenda</p><ul><li>one</li></ul>",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(record.Body, `<div class="invintus-player" data-event-id="42"></div>`) {
		t.Errorf("body missing player embed: %q", record.Body)
	}
	if !strings.Contains(record.Body, `<div class="invintus-block"><p>Agenda</p></div>`) {
		t.Errorf("paragraph not wrapped: %q", record.Body)
	}
	if !strings.Contains(record.Body, `<div class="invintus-block"><ul><li>one</li></ul></div>`) {
		t.Errorf("list not wrapped: %q", record.Body)
	}
}

func TestNormalizeEmptyDescriptionStillGetsPlayerEmbed(t *testing.T) {
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{EventID: "x_42"})
	if err != nil {
		t.Fatal(err)
	}
	if record.Body != `<div class="invintus-player" data-event-id="42"></div>` {
		t.Errorf("body = %q", record.Body)
	}
}

func TestNormalizeFutureOverride(t *testing.T) {
	// eventStatus maps to publish, but the start is after "now".
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
		EventID:       "x_1",
		EventStatus:   "published",
		StartDateTime: fixedNow.Add(time.Hour).Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if record.State != models.StateFuture {
		t.Errorf("state = %q, want future", record.State)
	}
}

func TestNormalizePrivateWinsOverEverything(t *testing.T) {
	tests := []struct {
		name          string
		eventStatus   string
		startDateTime string
	}{
		{"private live event", "live", ""},
		{"private published event", "published", ""},
		{"private future event", "published", fixedNow.Add(time.Hour).Format(time.RFC3339)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
				EventID:       "x_1",
				EventStatus:   tt.eventStatus,
				StartDateTime: tt.startDateTime,
				Private:       true,
			})
			if err != nil {
				t.Fatal(err)
			}
			if record.State != models.StatePrivate {
				t.Errorf("state = %q, want private", record.State)
			}
		})
	}
}

func TestNormalizePastStartKeepsMappedState(t *testing.T) {
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
		EventID:       "abc_42",
		Title:         "Town Hall",
		EventStatus:   "published",
		StartDateTime: "2020-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if record.State != models.StatePublish {
		t.Errorf("state = %q, want publish", record.State)
	}
	if !strings.HasSuffix(record.Slug, "-42") {
		t.Errorf("slug = %q", record.Slug)
	}
	if !record.PublishedAt.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("published_at = %v", record.PublishedAt)
	}
}

func TestNormalizeMalformedStartDateTime(t *testing.T) {
	for _, value := range []string{"not-a-date", "2026-13-45 99:99:99", "tomorrow"} {
		record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
			EventID:       "x_1",
			EventStatus:   "published",
			StartDateTime: value,
		})
		if err != nil {
			t.Fatalf("malformed start %q must not error: %v", value, err)
		}
		if record.State != models.StatePublish {
			t.Errorf("start %q: state = %q, want publish", value, record.State)
		}
		if !record.PublishedAt.IsZero() {
			t.Errorf("start %q: published_at should be zero", value)
		}
	}
}

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{})
	if err != nil {
		t.Fatalf("empty event must normalize: %v", err)
	}
	if record.Title != "" || record.CustomID != "" || record.Caption != "" {
		t.Errorf("optional fields should default to empty: %+v", record)
	}
	if record.State != models.StateDraft {
		t.Errorf("state = %q, want draft", record.State)
	}
	if len(record.Tags) != 0 {
		t.Errorf("tags = %v", record.Tags)
	}
}

func TestNormalizeTagsVerbatim(t *testing.T) {
	record, err := newTestNormalizer().Normalize(&models.RemoteEvent{
		EventID:  "x_1",
		Keywords: []string{"Budget", "budget", "Sessions 2026"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Budget", "budget", "Sessions 2026"}
	if len(record.Tags) != len(want) {
		t.Fatalf("tags = %v", record.Tags)
	}
	for i := range want {
		if record.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, record.Tags[i], want[i])
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Town Hall", "town-hall"},
		{"  Spaces  Everywhere  ", "spaces-everywhere"},
		{"Special!@#Chars", "special-chars"},
		{"Déjà Vu", "deja-vu"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
