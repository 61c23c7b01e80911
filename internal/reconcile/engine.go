// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/TVWIT/invintus-sync/internal/database"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/metrics"
	"github.com/TVWIT/invintus-sync/internal/models"
	"github.com/TVWIT/invintus-sync/internal/normalize"
)

// MethodEvents is the only webhook method this engine accepts.
const MethodEvents = "events"

// Capabilities gating the two mutation paths.
const (
	CapabilityEditContent   = "edit_content"
	CapabilityDeleteContent = "delete_content"
)

// upsertTypes are the action types that take the upsert path.
var upsertTypes = map[string]struct{}{
	"add":    {},
	"update": {},
	"new":    {},
	"stop":   {},
}

// RecordStore is the content persistence surface the engine needs.
// Satisfied by *database.DB.
type RecordStore interface {
	FindRecordsByRemoteEventID(ctx context.Context, remoteEventID string) ([]models.LocalRecord, error)
	InsertRecord(ctx context.Context, record *models.LocalRecord) error
	UpdateRecord(ctx context.Context, record *models.LocalRecord) error
	DeleteRecord(ctx context.Context, id string) error
}

// CategoryResolver resolves remote category descriptors to local node
// IDs. Satisfied by *category.Resolver.
type CategoryResolver interface {
	Resolve(ctx context.Context, descriptors []models.RemoteCategory) ([]string, error)
}

// Authorizer answers capability checks for the acting principal.
type Authorizer interface {
	Can(ctx context.Context, capability string) (bool, error)
}

// Result is the outcome of one reconcile call.
type Result struct {
	Op        Op                      `json:"op"`
	Records   []models.LocalRecord    `json:"records"`
	Deletions []models.DeletionResult `json:"deletions,omitempty"`
}

// Engine performs insert/update/delete against the content store based
// on inbound webhook actions. Writes for the same remote event ID are
// serialized through a per-key mutex so concurrent deliveries cannot
// duplicate a record between lookup and insert.
type Engine struct {
	store      RecordStore
	normalizer *normalize.Normalizer
	categories CategoryResolver
	authz      Authorizer

	beforeSave []BeforeSaveHook
	afterSave  []AfterSaveHook

	// Per-remote-event-ID write locks for concurrent upserts.
	keyLocks sync.Map
}

// NewEngine creates a reconciliation engine. authz may be nil, in which
// case every capability check passes (trusted in-process callers).
func NewEngine(store RecordStore, normalizer *normalize.Normalizer, categories CategoryResolver, authz Authorizer) *Engine {
	return &Engine{
		store:      store,
		normalizer: normalizer,
		categories: categories,
		authz:      authz,
	}
}

// OnBeforeSave registers a hook run before every insert/update.
func (e *Engine) OnBeforeSave(hook BeforeSaveHook) {
	e.beforeSave = append(e.beforeSave, hook)
}

// OnAfterSave registers a hook run after every persisted mutation.
func (e *Engine) OnAfterSave(hook AfterSaveHook) {
	e.afterSave = append(e.afterSave, hook)
}

// Reconcile dispatches an inbound webhook request. The method must be
// "events"; add/update/new/stop upsert, delete deletes, anything else
// is rejected. Errors of type *Error carry the stable code and HTTP
// status; store failures propagate unwrapped.
func (e *Engine) Reconcile(ctx context.Context, req *models.WebhookRequest) (*Result, error) {
	start := time.Now()

	result, err := e.dispatch(ctx, req)
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var rerr *Error
		if errors.As(err, &rerr) {
			metrics.ReconcileErrors.WithLabelValues(string(rerr.Code)).Inc()
		} else {
			metrics.ReconcileErrors.WithLabelValues("STORE_ERROR").Inc()
		}
		return nil, err
	}

	metrics.ReconcileOperations.WithLabelValues(string(result.Op)).Inc()
	return result, nil
}

func (e *Engine) dispatch(ctx context.Context, req *models.WebhookRequest) (*Result, error) {
	if req == nil {
		return nil, NewError(CodeMalformedPayload, "request body is missing")
	}
	if req.Errors != nil && req.Errors.HasError {
		return nil, NewError(CodeUpstreamValidation, req.Errors.Message)
	}
	if req.Action.Method != MethodEvents {
		return nil, NewError(CodeInvalidMethod, "unsupported method: "+req.Action.Method)
	}

	if _, ok := upsertTypes[req.Action.Type]; ok {
		return e.upsert(ctx, req.Data)
	}
	if req.Action.Type == "delete" {
		return e.delete(ctx, req.Data)
	}
	return nil, NewError(CodeInvalidAction, "unsupported action type: "+req.Action.Type)
}

// upsert normalizes the event and inserts or updates its record. A
// private event removes any existing record instead and reports success
// with an empty record list.
func (e *Engine) upsert(ctx context.Context, event *models.RemoteEvent) (*Result, error) {
	if err := e.authorize(ctx, CapabilityEditContent); err != nil {
		return nil, err
	}

	record, err := e.normalizer.Normalize(event)
	if err != nil {
		return nil, NewError(CodeMalformedPayload, err.Error())
	}

	unlock := e.lockKey(record.RemoteEventID)
	defer unlock()

	categoryIDs, err := e.categories.Resolve(ctx, event.CategoryXtended)
	if err != nil {
		return nil, err
	}
	record.CategoryIDs = categoryIDs

	existing, err := e.findExisting(ctx, record.RemoteEventID)
	if err != nil {
		return nil, err
	}

	// A private event is never retained, not even as a hidden draft.
	if record.State == models.StatePrivate {
		return e.removePrivate(ctx, existing)
	}

	if existing != nil {
		return e.update(ctx, record, existing)
	}
	return e.insert(ctx, record)
}

// findExisting returns the first record for the remote event ID, or nil
// when none exists. Extra matches are a data-integrity anomaly; they
// are logged and left alone.
func (e *Engine) findExisting(ctx context.Context, remoteEventID string) (*models.LocalRecord, error) {
	records, err := e.store.FindRecordsByRemoteEventID(ctx, remoteEventID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > 1 {
		for _, orphan := range records[1:] {
			logging.Warn().Str("record_id", orphan.ID).Str("remote_event_id", remoteEventID).
				Msg("Multiple records share a remote event ID, treating as orphaned")
		}
	}
	return &records[0], nil
}

// removePrivate permanently deletes the record of a private event, if
// one exists, and succeeds with an empty record list either way.
func (e *Engine) removePrivate(ctx context.Context, existing *models.LocalRecord) (*Result, error) {
	if existing == nil {
		return &Result{Op: OpNoop, Records: []models.LocalRecord{}}, nil
	}

	if err := e.store.DeleteRecord(ctx, existing.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	logging.Info().Str("record_id", existing.ID).Str("remote_event_id", existing.RemoteEventID).
		Msg("Removed record for private event")
	e.notifyAfterSave(ctx, existing, OpDelete)

	return &Result{Op: OpDelete, Records: []models.LocalRecord{}}, nil
}

func (e *Engine) update(ctx context.Context, record, existing *models.LocalRecord) (*Result, error) {
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt

	if err := e.runBeforeSave(ctx, record, OpUpdate); err != nil {
		return nil, err
	}
	if err := e.store.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	e.notifyAfterSave(ctx, record, OpUpdate)
	return &Result{Op: OpUpdate, Records: []models.LocalRecord{*record}}, nil
}

func (e *Engine) insert(ctx context.Context, record *models.LocalRecord) (*Result, error) {
	if err := e.runBeforeSave(ctx, record, OpInsert); err != nil {
		return nil, err
	}
	if err := e.store.InsertRecord(ctx, record); err != nil {
		return nil, err
	}

	// Re-read through the upsert lookup to confirm persistence.
	persisted, err := e.findExisting(ctx, record.RemoteEventID)
	if err != nil {
		return nil, err
	}
	if persisted == nil {
		return nil, errors.New("inserted record not found on re-lookup")
	}

	e.notifyAfterSave(ctx, persisted, OpInsert)
	return &Result{Op: OpInsert, Records: []models.LocalRecord{*persisted}}, nil
}

// delete removes every record matching the remote event ID. The lookup
// is not assumed unique; each deletion is independent.
func (e *Engine) delete(ctx context.Context, event *models.RemoteEvent) (*Result, error) {
	if err := e.authorize(ctx, CapabilityDeleteContent); err != nil {
		return nil, err
	}
	if event == nil {
		return nil, NewError(CodeMalformedPayload, "event payload is missing")
	}

	remoteEventID := event.NumericID()
	unlock := e.lockKey(remoteEventID)
	defer unlock()

	records, err := e.store.FindRecordsByRemoteEventID(ctx, remoteEventID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, NewError(CodeNotFound, "no record for remote event "+remoteEventID)
	}

	deletions := make([]models.DeletionResult, 0, len(records))
	for i := range records {
		record := &records[i]
		err := e.store.DeleteRecord(ctx, record.ID)
		deleted := err == nil
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			logging.Error().Err(err).Str("record_id", record.ID).Msg("Failed to delete record")
		}
		if deleted {
			e.notifyAfterSave(ctx, record, OpDelete)
		}
		deletions = append(deletions, models.DeletionResult{
			ID:            record.ID,
			RemoteEventID: record.RemoteEventID,
			Deleted:       deleted,
		})
	}

	return &Result{Op: OpDelete, Records: []models.LocalRecord{}, Deletions: deletions}, nil
}

func (e *Engine) authorize(ctx context.Context, capability string) error {
	if e.authz == nil {
		return nil
	}
	allowed, err := e.authz.Can(ctx, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return NewError(CodeForbidden, "missing capability: "+capability)
	}
	return nil
}

func (e *Engine) runBeforeSave(ctx context.Context, record *models.LocalRecord, op Op) error {
	for _, hook := range e.beforeSave {
		if err := hook(ctx, record, op); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) notifyAfterSave(ctx context.Context, record *models.LocalRecord, op Op) {
	for _, hook := range e.afterSave {
		hook(ctx, record, op)
	}
}

// lockKey serializes writes for one remote event ID.
func (e *Engine) lockKey(remoteEventID string) func() {
	muInterface, _ := e.keyLocks.LoadOrStore(remoteEventID, &sync.Mutex{})
	mu, ok := muInterface.(*sync.Mutex)
	if !ok {
		mu = &sync.Mutex{}
		e.keyLocks.Store(remoteEventID, mu)
	}
	mu.Lock()
	return mu.Unlock
}
