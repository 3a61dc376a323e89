// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package models defines the data structures shared across VaxSignal:
// adverse-event report rows, typed filter objects, signal result rows,
// and the API response envelope.
package models
