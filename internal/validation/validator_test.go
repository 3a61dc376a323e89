// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package validation

import "testing"

type sample struct {
	Port  int    `validate:"min=1,max=65535"`
	Level string `validate:"oneof=debug info warn"`
}

func TestValidateStructPasses(t *testing.T) {
	if err := ValidateStruct(sample{Port: 8042, Level: "info"}); err != nil {
		t.Errorf("valid struct rejected: %v", err)
	}
}

func TestValidateStructCollectsFieldErrors(t *testing.T) {
	err := ValidateStruct(sample{Port: 0, Level: "loud"})
	if err == nil {
		t.Fatal("invalid struct accepted")
	}
	if len(err.Fields) != 2 {
		t.Errorf("got %d field errors, want 2: %v", len(err.Fields), err.Fields)
	}
}
