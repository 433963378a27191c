package vpsdb

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// URL is a download location attached to a release.
type URL struct {
	URL    string `json:"url"`
	Broken bool   `json:"broken,omitempty"`
}

// File is a table, backglass or ROM release.
type File struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Authors     []string `json:"authors,omitempty"`
	TableFormat string   `json:"tableFormat,omitempty"`
	Features    []string `json:"features,omitempty"`
	ImgURL      string   `json:"imgUrl,omitempty"`
	URLs        []URL    `json:"urls,omitempty"`
	Name        string   `json:"name,omitempty"`
	UpdatedAt   int64    `json:"updatedAt,omitempty"`
}

// Game is one machine in the feed.
type Game struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Year         int      `json:"year"`
	Type         string   `json:"type,omitempty"`
	Theme        []string `json:"theme,omitempty"`
	Designers    []string `json:"designers,omitempty"`
	ImgURL       string   `json:"imgUrl,omitempty"`
	TableFiles   []File   `json:"tableFiles,omitempty"`
	B2SFiles     []File   `json:"b2sFiles,omitempty"`
	RomFiles     []File   `json:"romFiles,omitempty"`
	UpdatedAt    int64    `json:"updatedAt,omitempty"`
}

// DisplayName returns "Name (Manufacturer Year)" with missing parts omitted.
func (g Game) DisplayName() string {
	var parts []string
	if m := strings.TrimSpace(g.Manufacturer); m != "" {
		parts = append(parts, m)
	}
	if g.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", g.Year))
	}
	if len(parts) == 0 {
		return g.Name
	}
	return fmt.Sprintf("%s (%s)", g.Name, strings.Join(parts, " "))
}

// Preview returns the image URL of the newest table release that has one,
// ordering by semantic version, then falls back to backglass images and the
// game image.
func (g Game) Preview() string {
	if url := newestImage(g.TableFiles); url != "" {
		return url
	}
	if url := newestImage(g.B2SFiles); url != "" {
		return url
	}
	return g.ImgURL
}

func newestImage(files []File) string {
	var (
		best       string
		bestVer    *semver.Version
		bestUpdate int64
	)
	for _, file := range files {
		if strings.TrimSpace(file.ImgURL) == "" {
			continue
		}
		ver, err := semver.NewVersion(strings.TrimSpace(file.Version))
		if err != nil {
			ver = nil
		}
		if best == "" || newer(ver, file.UpdatedAt, bestVer, bestUpdate) {
			best, bestVer, bestUpdate = file.ImgURL, ver, file.UpdatedAt
		}
	}
	return best
}

// newer orders parseable versions above unparseable ones and breaks equal or
// missing versions by update time.
func newer(ver *semver.Version, updated int64, than *semver.Version, thanUpdated int64) bool {
	switch {
	case ver != nil && than == nil:
		return true
	case ver == nil && than != nil:
		return false
	case ver != nil && than != nil && !ver.Equal(than):
		return ver.GreaterThan(than)
	default:
		return updated > thanUpdated
	}
}

// RomNames lists the ROM codes published for the game, in feed order.
func (g Game) RomNames() []string {
	seen := make(map[string]struct{}, len(g.RomFiles))
	var names []string
	for _, rom := range g.RomFiles {
		name := strings.TrimSpace(rom.Version)
		if name == "" {
			name = strings.TrimSpace(rom.Name)
		}
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}
