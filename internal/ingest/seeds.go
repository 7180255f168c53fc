// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package ingest implements candidate discovery: the four feeders, the
// query extraction that powers them, and the gating filter that admits
// candidates into the store.
package ingest

import "github.com/nichescout/nichescout/internal/models"

// IntentSeeds are generic intent patterns that work across niches. The
// intent-seed feeder walks this list with a persisted cursor; order and
// content are versioned domain constants since they shape discovery.
var IntentSeeds = []string{
	// Instructional patterns
	"how to",
	"tutorial",
	"beginner guide",
	"complete guide",
	"ultimate guide",
	"step by step",
	"learn",
	"course",
	"masterclass",
	"explained",
	"for beginners",
	"basics",
	"introduction to",

	// Experiential patterns
	"I tried",
	"trying",
	"testing",
	"first time",
	"my experience",
	"honest opinion",
	"my thoughts on",
	"after one year",
	"update",
	"follow up",
	"results",

	// Review/comparison patterns
	"review",
	"honest review",
	"vs comparison",
	"versus",
	"which is better",
	"best",
	"worst",
	"tier list",
	"ranking",
	"top 10",
	"top 5",

	// Transformation patterns
	"before and after",
	"transformation",
	"makeover",
	"glow up",
	"progress",
	"journey",

	// Challenge/entertainment patterns
	"challenge",
	"day in the life",
	"routine",
	"vlog",
	"reacting to",
	"reaction",

	// Knowledge patterns
	"what I learned",
	"mistakes",
	"things I wish",
	"nobody tells you",
	"secrets",
	"hack",
	"tips",
	"tricks",
	"pro tips",

	// Building/making patterns
	"building",
	"making",
	"creating",
	"DIY",
	"setup",
	"fixing",
	"repair",
	"restoration",

	// Lifestyle patterns
	"morning routine",
	"night routine",
	"day in my life",
	"weekly",
	"monthly",

	// Analysis patterns
	"analysis",
	"breakdown",
	"deep dive",
	"in depth",
	"why",
	"how",

	// Emotional triggers
	"stop doing",
	"start doing",
	"why I",
	"switching to",
	"upgrading",
	"downgrading",
	"quitting",
	"leaving",
	"starting",

	// Question patterns
	"should you",
	"is it worth",
	"do you need",
	"can you",
}

// searchOrders picks the result ordering per window: fresh content for
// the 24h band, proven performers for the wider bands.
var searchOrders = map[models.Window]string{
	models.Window24h: "date",
	models.Window7d:  "viewCount",
	models.Window30d: "viewCount",
	models.Window90d: "viewCount",
}

// SearchOrderFor returns the search ordering used for a window.
func SearchOrderFor(w models.Window) string {
	if order, ok := searchOrders[w]; ok {
		return order
	}
	return "viewCount"
}
