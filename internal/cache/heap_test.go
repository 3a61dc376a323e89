// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package cache

import (
	"testing"
	"time"
)

func TestExpiryHeapOrdering(t *testing.T) {
	h := newExpiryHeap()
	base := time.Now()

	h.push("c", base.Add(3*time.Minute))
	h.push("a", base.Add(1*time.Minute))
	h.push("b", base.Add(2*time.Minute))

	for _, want := range []string{"a", "b", "c"} {
		e := h.pop()
		if e == nil || e.key != want {
			t.Fatalf("pop = %v, want %s", e, want)
		}
	}
	if h.pop() != nil {
		t.Error("pop on empty heap returned an entry")
	}
}

func TestExpiryHeapRemove(t *testing.T) {
	h := newExpiryHeap()
	base := time.Now()

	h.push("a", base.Add(1*time.Minute))
	h.push("b", base.Add(2*time.Minute))
	h.push("c", base.Add(3*time.Minute))

	h.remove("b")
	if h.len() != 2 {
		t.Fatalf("len = %d after remove, want 2", h.len())
	}
	if e := h.pop(); e.key != "a" {
		t.Errorf("pop = %s, want a", e.key)
	}
	if e := h.pop(); e.key != "c" {
		t.Errorf("pop = %s, want c", e.key)
	}
}

func TestExpiryHeapPeekDoesNotRemove(t *testing.T) {
	h := newExpiryHeap()
	h.push("only", time.Now().Add(time.Minute))

	if e := h.peek(); e == nil || e.key != "only" {
		t.Fatalf("peek = %v, want only", e)
	}
	if h.len() != 1 {
		t.Errorf("len = %d after peek, want 1", h.len())
	}
}
