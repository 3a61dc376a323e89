// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton instance.
//
//	type signalRequest struct {
//	    Limit  int    `validate:"min=10,max=200"`
//	    SortBy string `validate:"oneof=prr ror a"`
//	}
//	if err := validation.ValidateStruct(&req); err != nil { ... }
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

// instance returns the singleton validator, creating it on first use.
// The validator caches struct metadata, so sharing one instance matters.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError is a single field validation failure.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Error returns a human-readable message for the failure.
func (e FieldError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("field %s failed %s=%s", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("field %s failed %s", e.Field, e.Tag)
}

// StructError aggregates the field failures of one ValidateStruct call.
type StructError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *StructError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateStruct validates v using its `validate` tags. Returns nil on
// success or a *StructError listing every failed field.
func ValidateStruct(v interface{}) *StructError {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: caller passed a non-struct.
		return &StructError{Fields: []FieldError{{Field: "(input)", Tag: "struct"}}}
	}

	out := &StructError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}
