// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"sync"
	"time"

	"github.com/txtr/holon/core/auditlog"
)

// HistoryEntry summarises one call.
type HistoryEntry struct {
	// URL is the base URL with the posted body as its "json" query
	// parameter.
	URL string

	Method string

	// Status is the HTTP status, or -1 when no response was received.
	Status int

	// Duration is the time taken by the exchange, or -1 when no
	// response was received.
	Duration time.Duration

	When time.Time
}

type history struct {
	mu      sync.Mutex
	entries []HistoryEntry
	sink    auditlog.AuditLog
}

func (h *history) add(e HistoryEntry) {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()

	if h.sink == nil {
		return
	}
	if err := h.sink.AddEntry(auditlog.NewEntry(e.When, e.Method, e.URL, e.Status, e.Duration)); err != nil {
		logger.Warningf("cannot write history entry for %s: %v", e.Method, err)
	}
}

func (h *history) snapshot() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HistoryEntry{}, h.entries...)
}

func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
