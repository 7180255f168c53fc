// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package platform

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nichescout/nichescout/internal/logging"
)

// feedURLTemplate is the platform's public per-channel feed. Reading it
// costs no quota units.
const feedURLTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

const feedRetries = 3

// FetchChannelFeed reads a channel's public feed, yielding up to ~15 most
// recent videos at zero quota cost. Entries that fail to parse are logged
// at debug level and skipped.
func (c *Client) FetchChannelFeed(ctx context.Context, channelID string) ([]FeedItem, error) {
	feedURL := fmt.Sprintf(feedURLTemplate, channelID)

	var body []byte
	var lastErr error
	for attempt := 0; attempt < feedRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build feed request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("feed for %s returned status %d", channelID, resp.StatusCode)
			continue
		}
		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, fmt.Errorf("feed fetch failed after %d attempts: %w", feedRetries, lastErr)
	}

	return ParseFeed(body, channelID)
}

// ParseFeed extracts feed items from an Atom channel feed document.
func ParseFeed(data []byte, channelID string) ([]FeedItem, error) {
	var doc feedDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed for %s: %w", channelID, err)
	}

	items := make([]FeedItem, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		if entry.VideoID == "" {
			logging.Debug().Str("channel_id", channelID).Msg("feed entry without video id, skipped")
			continue
		}
		published, err := time.Parse(time.RFC3339, entry.Published)
		if err != nil {
			logging.Debug().Err(err).Str("video_id", entry.VideoID).
				Msg("feed entry with bad publish time, skipped")
			continue
		}

		item := FeedItem{
			VideoID:      entry.VideoID,
			Title:        entry.Title,
			PublishedAt:  published,
			ThumbnailURL: entry.Group.Thumbnail.URL,
		}
		if v := entry.Group.Community.Statistics.Views; v != "" {
			if views, err := strconv.ParseInt(v, 10, 64); err == nil {
				item.ViewCount = &views
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Atom feed document with media and platform namespace extensions.

type feedDocument struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	VideoID   string     `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	Title     string     `xml:"title"`
	Published string     `xml:"published"`
	Group     mediaGroup `xml:"http://search.yahoo.com/mrss/ group"`
}

type mediaGroup struct {
	Thumbnail struct {
		URL string `xml:"url,attr"`
	} `xml:"http://search.yahoo.com/mrss/ thumbnail"`
	Community struct {
		Statistics struct {
			Views string `xml:"views,attr"`
		} `xml:"http://search.yahoo.com/mrss/ statistics"`
	} `xml:"http://search.yahoo.com/mrss/ community"`
}
