// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/goccy/go-json"
)

// StableHash canonicalizes v into a content digest: logically equal inputs
// hash identically regardless of map/parameter ordering.
//
// Canonicalization round-trips v through generic JSON so that all maps
// become map[string]interface{}, which marshal with sorted keys and fixed
// separators. The digest is hex-encoded SHA-256 of that canonical form.
func StableHash(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("stable hash marshal: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("stable hash canonicalize: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("stable hash remarshal: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
