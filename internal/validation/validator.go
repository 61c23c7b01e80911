// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package validation provides struct validation using
// go-playground/validator v10 behind a thread-safe singleton, with error
// translation into the API's VALIDATION_ERROR format.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// RequestValidationError aggregates field failures for one request.
type RequestValidationError struct {
	fields []FieldError
}

// Fields returns the individual field errors.
func (ve *RequestValidationError) Fields() []FieldError {
	return ve.fields
}

func (ve *RequestValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.fields))
	for i, f := range ve.fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Details returns structured failure data for the API error envelope.
func (ve *RequestValidationError) Details() map[string]interface{} {
	if len(ve.fields) == 1 {
		f := ve.fields[0]
		return map[string]interface{}{
			"field": f.Field,
			"tag":   f.Tag,
			"value": f.Value,
		}
	}
	fields := make([]map[string]interface{}, len(ve.fields))
	for i, f := range ve.fields {
		fields[i] = map[string]interface{}{
			"field":   f.Field,
			"tag":     f.Tag,
			"message": f.Message,
		}
	}
	return map[string]interface{}{"fields": fields}
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates s and returns nil on success or a
// *RequestValidationError describing every failed field.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translate(fe),
		}
	}
	return &RequestValidationError{fields: fields}
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"datetime": "%s must be a valid date/time in RFC3339 format",
	"url":      "%s must be a valid URL",
}

var messageTemplatesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if tpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := messageTemplatesWithParam[tag]; ok {
		return fmt.Sprintf(tpl, field, param)
	}

	isString := fe.Kind().String() == "string"
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
