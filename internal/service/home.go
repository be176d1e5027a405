package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gantzhq/gantz/internal/config"
	"github.com/gantzhq/gantz/internal/models"
)

// Landing is the home view: recent activity plus the static links.
type Landing struct {
	Photos     []models.Photo `json:"photos"`
	Memos      []models.Memo  `json:"memos"`
	YouTubeURL string         `json:"youtube_url,omitempty"`
	EmbedURL   string         `json:"embed_url,omitempty"`
	Links      []config.Link  `json:"links"`
}

type Home struct {
	photos *Photos
	memos  *Memos
	site   config.SiteConfig
	now    func() time.Time
}

func NewHome(photos *Photos, memos *Memos, site config.SiteConfig) *Home {
	return &Home{photos: photos, memos: memos, site: site, now: time.Now}
}

// Landing gathers photos and memos of the last RecentDays days, newest first.
func (h *Home) Landing(ctx context.Context) (*Landing, error) {
	days := h.site.RecentDays
	if days <= 0 {
		days = 7
	}
	limit := h.site.RecentLimit
	if limit <= 0 {
		limit = 30
	}
	since := h.now().Add(-time.Duration(days) * 24 * time.Hour)

	photos, err := h.photos.Recent(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent photos: %w", err)
	}
	memos, err := h.memos.Recent(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent memos: %w", err)
	}
	links := h.site.Links
	if links == nil {
		links = []config.Link{}
	}
	return &Landing{
		Photos:     photos,
		Memos:      memos,
		YouTubeURL: h.site.YouTubeURL,
		EmbedURL:   YouTubeEmbedURL(h.site.YouTubeURL),
		Links:      links,
	}, nil
}

// YouTubeEmbedURL converts youtu.be/<id>, watch?v=<id>, /embed/<id> and /shorts/<id>
// links to an embeddable URL. Anything else yields "".
func YouTubeEmbedURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	const embed = "https://www.youtube.com/embed/"
	switch {
	case strings.Contains(u.Hostname(), "youtu.be"):
		if id := strings.TrimPrefix(u.Path, "/"); id != "" {
			return embed + id
		}
	case strings.Contains(u.Hostname(), "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return embed + v
		}
		if strings.HasPrefix(u.Path, "/embed/") {
			return "https://www.youtube.com" + u.Path
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			if id, _, _ := strings.Cut(rest, "/"); id != "" {
				return embed + id
			}
		}
	}
	return ""
}
