// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

package validation

import (
	"strings"
	"testing"
)

type auditQuery struct {
	Limit  int    `validate:"min=1,max=1000"`
	Offset int    `validate:"min=0"`
	Order  string `validate:"omitempty,oneof=asc desc"`
}

func TestValidateStructPasses(t *testing.T) {
	if err := ValidateStruct(&auditQuery{Limit: 100, Order: "desc"}); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}
}

func TestValidateStructSingleFailure(t *testing.T) {
	err := ValidateStruct(&auditQuery{Limit: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	fields := err.Fields()
	if len(fields) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fields))
	}
	if fields[0].Field != "Limit" || fields[0].Tag != "min" {
		t.Errorf("unexpected field error: %+v", fields[0])
	}
	if !strings.Contains(err.Error(), "at least 1") {
		t.Errorf("unexpected message: %q", err.Error())
	}
	details := err.Details()
	if details["field"] != "Limit" {
		t.Errorf("details should carry field name: %v", details)
	}
}

func TestValidateStructMultipleFailures(t *testing.T) {
	err := ValidateStruct(&auditQuery{Limit: 5000, Offset: -1, Order: "sideways"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields()) != 3 {
		t.Fatalf("expected 3 field errors, got %d", len(err.Fields()))
	}
	if _, ok := err.Details()["fields"]; !ok {
		t.Errorf("multi-failure details should list fields: %v", err.Details())
	}
}
