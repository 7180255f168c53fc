// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package cluster

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nichescout/nichescout/internal/models"
)

func TestStableClusterIDOrderIndependent(t *testing.T) {
	a := StableClusterID(models.Window7d, []string{"v1", "v2", "v3"})
	b := StableClusterID(models.Window7d, []string{"v3", "v1", "v2"})
	if a != b {
		t.Errorf("same member set produced %s and %s", a, b)
	}
}

func TestStableClusterIDDiffersByWindow(t *testing.T) {
	a := StableClusterID(models.Window7d, []string{"v1", "v2", "v3"})
	b := StableClusterID(models.Window30d, []string{"v1", "v2", "v3"})
	if a == b {
		t.Error("different windows produced the same cluster id")
	}
}

func TestStableClusterIDDiffersByMembers(t *testing.T) {
	a := StableClusterID(models.Window7d, []string{"v1", "v2"})
	b := StableClusterID(models.Window7d, []string{"v1", "v2", "v3"})
	if a == b {
		t.Error("different member sets produced the same cluster id")
	}
}

func TestStableClusterIDIsValidUUID(t *testing.T) {
	id := StableClusterID(models.Window7d, []string{"v1"})
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("cluster id %q is not a UUID: %v", id, err)
	}
}

func TestStableClusterIDDoesNotMutateInput(t *testing.T) {
	ids := []string{"v3", "v1", "v2"}
	StableClusterID(models.Window7d, ids)
	if ids[0] != "v3" || ids[1] != "v1" || ids[2] != "v2" {
		t.Errorf("input slice mutated: %v", ids)
	}
}
