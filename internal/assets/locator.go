package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"vpxmerge/internal/identification"
	"vpxmerge/internal/scriptfacts"
	"vpxmerge/internal/textutil"
)

// dmdSuffixes are appended to the ROM code and table base name to form DMD
// folder names.
var dmdSuffixes = []string{".DMD", ".UltraDMD", "DMD"}

var musicExtensions = []string{".mp3", ".ogg"}

const listingCacheSize = 64

// Dirs holds the source directories. Empty directories disable their lookups.
type Dirs struct {
	Tables    string
	VPinMAME  string
	PuPVideos string
	Music     string
}

// Request describes one table to locate assets for.
type Request struct {
	// Base is the table file name without extension.
	Base string
	// Facts are the script facts; the zero value means no script was read.
	Facts scriptfacts.Facts
	// Candidates are name keys used for fuzzy PuP and music resolution.
	Candidates []string
	// HasScript is false when extraction failed, limiting lookups to the
	// file-level ones.
	HasScript bool
}

// Locator answers asset lookups. It is safe for concurrent use.
type Locator struct {
	dirs     Dirs
	resolver identification.Resolver
	listings *lru.Cache[string, []dirEntry]
}

type dirEntry struct {
	name  string
	isDir bool
}

// New creates a Locator. resolver drives the fuzzy fallbacks.
func New(dirs Dirs, resolver identification.Resolver) (*Locator, error) {
	listings, err := lru.New[string, []dirEntry](listingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create listing cache: %w", err)
	}
	return &Locator{dirs: dirs, resolver: resolver, listings: listings}, nil
}

// Locate runs every lookup that applies to req, in Kinds order. Script
// dependent lookups are skipped when req.HasScript is false.
func (l *Locator) Locate(req Request) []Finding {
	rom := req.Facts.ROM
	var findings []Finding
	if req.HasScript {
		findings = append(findings, l.ROM(rom))
	}
	findings = append(findings, l.Backglass(req.Base))
	if !req.HasScript {
		return findings
	}
	if req.Facts.UsesDMD() {
		findings = append(findings, l.DMD(rom, req.Base, req.Facts))
	}
	if rom != "" {
		findings = append(findings, l.AltSound(rom), l.AltColor(rom))
	}
	findings = append(findings, l.PuP(rom, req.Base, req.Candidates))
	findings = append(findings, l.Music(musicTargets(req), req.Candidates)...)
	return findings
}

// ROM looks for <vpinmame>/roms/<rom>.zip.
func (l *Locator) ROM(rom string) Finding {
	if rom == "" {
		return missing(KindROM, "", "script declares no ROM")
	}
	dir := filepath.Join(l.dirs.VPinMAME, "roms")
	if name, ok := l.lookup(l.dirs.VPinMAME, dir, rom+".zip", false); ok {
		return Finding{Kind: KindROM, Found: true, Name: rom, Path: filepath.Join(dir, name)}
	}
	return missing(KindROM, rom, "")
}

// Backglass looks for <tables>/<base>.directb2s.
func (l *Locator) Backglass(base string) Finding {
	if name, ok := l.lookup(l.dirs.Tables, l.dirs.Tables, base+".directb2s", false); ok {
		return Finding{Kind: KindBackglass, Found: true, Name: name, Path: filepath.Join(l.dirs.Tables, name)}
	}
	return missing(KindBackglass, base+".directb2s", "")
}

// DMD looks for a DMD folder in the tables directory named after the script's
// project folder, the ROM code or the table base name.
func (l *Locator) DMD(rom, base string, facts scriptfacts.Facts) Finding {
	var names []string
	if facts.DMDProjectFolder != "" {
		names = append(names, facts.DMDProjectFolder)
	}
	for _, stem := range []string{rom, base} {
		if stem == "" {
			continue
		}
		for _, suffix := range dmdSuffixes {
			names = append(names, stem+suffix)
		}
	}
	for _, candidate := range names {
		if name, ok := l.lookup(l.dirs.Tables, l.dirs.Tables, candidate, true); ok {
			return Finding{Kind: KindDMD, Found: true, Name: name, Path: filepath.Join(l.dirs.Tables, name)}
		}
	}
	return missing(KindDMD, "", "script uses "+facts.DMDLabel())
}

// AltSound looks for <vpinmame>/altsound/<rom>.
func (l *Locator) AltSound(rom string) Finding {
	return l.romFolder(KindAltSound, "altsound", rom)
}

// AltColor looks for <vpinmame>/altcolor/<rom>.
func (l *Locator) AltColor(rom string) Finding {
	return l.romFolder(KindAltColor, "altcolor", rom)
}

func (l *Locator) romFolder(kind Kind, sub, rom string) Finding {
	dir := filepath.Join(l.dirs.VPinMAME, sub)
	if rom != "" {
		if name, ok := l.lookup(l.dirs.VPinMAME, dir, rom, true); ok {
			return Finding{Kind: kind, Found: true, Name: name, Path: filepath.Join(dir, name)}
		}
	}
	return missing(kind, rom, "")
}

// PuP looks for <pupvideos>/<rom>, then <pupvideos>/<base>, then resolves the
// candidates against the existing pack folders.
func (l *Locator) PuP(rom, base string, candidates []string) Finding {
	dir := l.dirs.PuPVideos
	for _, stem := range []string{rom, base} {
		if stem == "" {
			continue
		}
		if name, ok := l.lookup(dir, dir, stem, true); ok {
			return Finding{Kind: KindPuP, Found: true, Name: name, Path: filepath.Join(dir, name)}
		}
	}
	if name, score, ok := l.fuzzyFolder(dir, candidates); ok {
		return Finding{Kind: KindPuP, Found: true, Name: name, Path: filepath.Join(dir, name), Fuzzy: true, Score: score}
	}
	return missing(KindPuP, textutil.Ternary(rom != "", rom, base), "")
}

// Music resolves each target folder case-insensitively and lists its tracks.
// When none exists the candidates are resolved against the music folders.
func (l *Locator) Music(targets, candidates []string) []Finding {
	dir := l.dirs.Music
	var findings []Finding
	seen := make(map[string]struct{})
	for _, target := range targets {
		name, ok := l.lookup(dir, dir, target, true)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		findings = append(findings, l.musicFinding(name, false, 0))
	}
	if len(findings) > 0 {
		return findings
	}
	if name, score, ok := l.fuzzyFolder(dir, candidates); ok {
		return []Finding{l.musicFinding(name, true, score)}
	}
	return []Finding{missing(KindMusic, strings.Join(targets, ", "), "")}
}

func (l *Locator) musicFinding(name string, fuzzy bool, score float64) Finding {
	path := filepath.Join(l.dirs.Music, name)
	return Finding{
		Kind:  KindMusic,
		Found: true,
		Name:  name,
		Path:  path,
		Fuzzy: fuzzy,
		Score: score,
		Files: l.tracks(path),
	}
}

// tracks lists the audio files directly inside dir, sorted.
func (l *Locator) tracks(dir string) []string {
	var files []string
	for _, entry := range l.list(dir) {
		if entry.isDir {
			continue
		}
		if slices.Contains(musicExtensions, strings.ToLower(filepath.Ext(entry.name))) {
			files = append(files, entry.name)
		}
	}
	slices.Sort(files)
	return files
}

// musicTargets returns the folders a table may play music from: the script's
// references, then the ROM code and table base name.
func musicTargets(req Request) []string {
	targets := append([]string(nil), req.Facts.MusicFolders...)
	if req.Facts.ROM != "" {
		targets = append(targets, req.Facts.ROM)
	}
	if req.Base != "" {
		targets = append(targets, req.Base)
	}
	return targets
}

// lookup finds name in dir, exactly and then ignoring case. root gates the
// lookup: an unset source directory never matches.
func (l *Locator) lookup(root, dir, name string, wantDir bool) (string, bool) {
	if root == "" || name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() == wantDir {
		return name, true
	}
	for _, entry := range l.list(dir) {
		if entry.isDir == wantDir && strings.EqualFold(entry.name, name) {
			return entry.name, true
		}
	}
	return "", false
}

// fuzzyFolder resolves candidates against the sub-folder names of dir.
func (l *Locator) fuzzyFolder(dir string, candidates []string) (string, float64, bool) {
	if dir == "" || len(candidates) == 0 {
		return "", 0, false
	}
	var builder identification.IndexBuilder
	for _, entry := range l.list(dir) {
		if entry.isDir {
			builder.AddName(entry.name, entry.name)
		}
	}
	match, ok := l.resolver.Resolve(candidates, builder.Build())
	if !ok {
		return "", 0, false
	}
	return match.ReferenceID, match.Score, true
}

// list returns the cached entries of dir. Unreadable directories list as
// empty.
func (l *Locator) list(dir string) []dirEntry {
	if cached, ok := l.listings.Get(dir); ok {
		return cached
	}
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	out := make([]dirEntry, 0, len(entries))
	for _, entry := range entries {
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(dir, entry.Name())); err == nil {
				isDir = info.IsDir()
			}
		}
		out = append(out, dirEntry{name: entry.Name(), isDir: isDir})
	}
	l.listings.Add(dir, out)
	return out
}
