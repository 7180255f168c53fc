// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package cluster

import (
	"crypto/sha256"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nichescout/nichescout/internal/models"
)

// StableClusterID derives a deterministic UUID from the window and the
// member set. Identical membership in the same window yields the same
// ID across runs, making cluster upserts idempotent.
func StableClusterID(window models.Window, videoIDs []string) string {
	sorted := append([]string(nil), videoIDs...)
	sort.Strings(sorted)

	content := string(window) + ":" + strings.Join(sorted, ",")
	sum := sha256.Sum256([]byte(content))

	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		// Unreachable with a 16-byte input.
		panic(err)
	}
	return id.String()
}
