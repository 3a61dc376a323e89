// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package cache

import "time"

// heapEntry is one node of the expiry heap.
type heapEntry struct {
	key       string
	expiresAt time.Time
	index     int // position in the heap array, for O(log n) updates
}

// expiryHeap is a min-heap of cache keys ordered by expiry time, with a
// parallel map for O(1) key lookup. It backs nearest-expiry-first overflow
// eviction and cheap expired-entry purging.
//
// The heap is not safe for concurrent use; the owning Cache serializes
// access under its own mutex.
type expiryHeap struct {
	heap  []*heapEntry
	byKey map[string]*heapEntry
}

func newExpiryHeap() *expiryHeap {
	return &expiryHeap{byKey: make(map[string]*heapEntry)}
}

// push adds key with the given expiry, or reschedules it if already present.
func (h *expiryHeap) push(key string, expiresAt time.Time) {
	if existing, ok := h.byKey[key]; ok {
		existing.expiresAt = expiresAt
		h.fix(existing.index)
		return
	}

	entry := &heapEntry{key: key, expiresAt: expiresAt, index: len(h.heap)}
	h.heap = append(h.heap, entry)
	h.byKey[key] = entry
	h.bubbleUp(entry.index)
}

// pop removes and returns the nearest-expiry entry, or nil when empty.
func (h *expiryHeap) pop() *heapEntry {
	if len(h.heap) == 0 {
		return nil
	}
	return h.removeAt(0)
}

// peek returns the nearest-expiry entry without removing it.
func (h *expiryHeap) peek() *heapEntry {
	if len(h.heap) == 0 {
		return nil
	}
	return h.heap[0]
}

// remove removes key from the heap; returns false if absent.
func (h *expiryHeap) remove(key string) bool {
	entry, ok := h.byKey[key]
	if !ok {
		return false
	}
	h.removeAt(entry.index)
	return true
}

func (h *expiryHeap) len() int { return len(h.heap) }

func (h *expiryHeap) clear() {
	h.heap = nil
	h.byKey = make(map[string]*heapEntry)
}

func (h *expiryHeap) removeAt(i int) *heapEntry {
	n := len(h.heap) - 1
	entry := h.heap[i]
	delete(h.byKey, entry.key)

	if i == n {
		h.heap = h.heap[:n]
		return entry
	}

	h.heap[i] = h.heap[n]
	h.heap[i].index = i
	h.heap = h.heap[:n]
	h.fix(i)
	return entry
}

func (h *expiryHeap) fix(i int) {
	if h.bubbleUp(i) {
		return
	}
	h.bubbleDown(i)
}

func (h *expiryHeap) bubbleUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !h.heap[i].expiresAt.Before(h.heap[parent].expiresAt) {
			break
		}
		h.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

func (h *expiryHeap) bubbleDown(i int) {
	n := len(h.heap)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && h.heap[left].expiresAt.Before(h.heap[smallest].expiresAt) {
			smallest = left
		}
		if right < n && h.heap[right].expiresAt.Before(h.heap[smallest].expiresAt) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *expiryHeap) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.heap[i].index = i
	h.heap[j].index = j
}
