// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/TVWIT/invintus-sync/internal/authz"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/metrics"
	"github.com/TVWIT/invintus-sync/internal/models"
	"github.com/TVWIT/invintus-sync/internal/reconcile"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the request body.
const SignatureHeader = "X-Invintus-Signature"

// maxWebhookBody caps inbound payloads at 1 MB.
const maxWebhookBody = 1 << 20

// InvintusWebhook ingests an Invintus platform webhook delivery.
// POST /api/v1/webhooks/invintus
//
// When a webhook secret is configured the body's HMAC-SHA256 signature is
// verified before anything else. Every delivery that passes the signature
// check is recorded in the audit log, including ones the engine rejects.
// Deliveries pre-flagged by the sender (errors.hasError) are logged with
// an empty event ID and rejected without touching the store.
func (h *Handler) InvintusWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body", err)
		return
	}
	defer r.Body.Close()

	if h.config.Webhook.Secret != "" {
		signature := r.Header.Get(SignatureHeader)
		if signature == "" {
			respondError(w, http.StatusUnauthorized, "MISSING_SIGNATURE", SignatureHeader+" header required", nil)
			return
		}
		if !verifyWebhookSignature(body, signature, h.config.Webhook.Secret) {
			respondError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature verification failed", nil)
			return
		}
	}

	// Retention pruning rides along with ingestion traffic while
	// payload logging is on.
	if h.audit.Enabled(ctx) {
		if _, err := h.audit.Prune(ctx); err != nil {
			logging.Warn().Err(err).Msg("audit prune failed")
		}
	}

	var req models.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.audit.Record(ctx, 0, "unparseable", string(body))
		respondError(w, http.StatusBadRequest, "MALFORMED_PAYLOAD", "Failed to parse webhook JSON", err)
		return
	}

	action := req.Action.Method + "_" + req.Action.Type
	metrics.WebhooksReceived.WithLabelValues(action).Inc()

	logging.Info().
		Str("action", sanitizeLogValue(action)).
		Str("event_id", sanitizeLogValue(eventIDOf(&req))).
		Msg("webhook received")

	// Sender-flagged failures are audited with no event ID and rejected
	// before the engine sees them.
	if req.Errors != nil && req.Errors.HasError {
		h.audit.Record(ctx, 0, action, string(body))
		message := req.Errors.Message
		if message == "" {
			message = "Sender flagged the payload as invalid"
		}
		respondError(w, http.StatusUnauthorized, string(reconcile.CodeUpstreamValidation), message, nil)
		return
	}

	h.audit.Record(ctx, numericEventID(&req), action, string(body))

	ctx = authz.ContextWithRole(ctx, h.config.Auth.WebhookRole)
	result, err := h.engine.Reconcile(ctx, &req)
	if err != nil {
		var rerr *reconcile.Error
		if errors.As(err, &rerr) {
			respondError(w, rerr.Status, string(rerr.Code), rerr.Message, nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Reconciliation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// verifyWebhookSignature checks the hex HMAC-SHA256 of the payload.
func verifyWebhookSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// eventIDOf returns the raw composite event ID, or empty.
func eventIDOf(req *models.WebhookRequest) string {
	if req.Data == nil {
		return ""
	}
	return req.Data.EventID
}

// numericEventID extracts the numeric remote event ID for the audit row.
// Zero when the payload carries none.
func numericEventID(req *models.WebhookRequest) int64 {
	if req.Data == nil {
		return 0
	}
	id, err := strconv.ParseInt(req.Data.NumericID(), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
