package scriptfacts

import (
	"regexp"
	"strings"
)

var romPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:(?:Private|Public)\s+)?Const\s+cGameName\s*=\s*"([^"]*)"`),
	regexp.MustCompile(`(?i)\bcGameName\s*=\s*"([^"]*)"`),
	regexp.MustCompile(`(?i)\bController\.GameName\s*=\s*"([^"]*)"`),
	regexp.MustCompile(`(?i)(?:^|[^.\w])GameName\s*=\s*"([^"]*)"`),
}

var validROM = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

type dmdDetector struct {
	family   DMDFamily
	patterns []*regexp.Regexp
}

var dmdDetectors = []dmdDetector{
	{
		family: DMDUltra,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bUseUltraDMD\s*=\s*(?:1|True)\b`),
			regexp.MustCompile(`(?i)CreateObject\s*\(\s*"UltraDMD\.DMDObject"\s*\)`),
			regexp.MustCompile(`(?i)\bUltraDMD\.Init\b`),
		},
	},
	{
		family: DMDFlex,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bUseFlexDMD\s*=\s*(?:1|True)\b`),
			regexp.MustCompile(`(?i)CreateObject\s*\(\s*"FlexDMD\.FlexDMD"\s*\)`),
			regexp.MustCompile(`(?i)\bFlexDMD\.Init\b`),
		},
	},
}

var projectFolderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.ProjectFolder\s*=\s*"([^"]*)"`),
	regexp.MustCompile(`(?i)\.ProjectFolder\s*=\s*\w+\s*&\s*"([^"]*)"`),
}

var (
	playMusicPattern   = regexp.MustCompile(`(?i)\bPlayMusic\s*\(?\s*"([^"]*)"`)
	musicSubdirPattern = regexp.MustCompile(`(?i)\bMusicSubDirectory\s*=\s*"([^"]*)"`)
	pathSeparators     = "\\/"
)

func applyROM(code []string, facts *Facts) {
	for _, pattern := range romPatterns {
		for _, line := range code {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			rom := strings.TrimSpace(m[1])
			if validROM.MatchString(rom) {
				facts.ROM = rom
				return
			}
		}
	}
}

func applyDMD(code []string, facts *Facts) {
	for _, detector := range dmdDetectors {
		if anyLineMatches(code, detector.patterns) {
			facts.DMDFamilies = append(facts.DMDFamilies, detector.family)
		}
	}
}

func anyLineMatches(code []string, patterns []*regexp.Regexp) bool {
	for _, line := range code {
		for _, pattern := range patterns {
			if pattern.MatchString(line) {
				return true
			}
		}
	}
	return false
}

func applyProjectFolder(code []string, facts *Facts) {
	for _, line := range code {
		for _, pattern := range projectFolderPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if name := lastSegment(m[1]); name != "" {
				facts.DMDProjectFolder = name
				return
			}
		}
	}
}

// lastSegment returns the final non-empty, non-"." path segment.
func lastSegment(value string) string {
	segments := strings.FieldsFunc(value, func(r rune) bool {
		return strings.ContainsRune(pathSeparators, r)
	})
	for i := len(segments) - 1; i >= 0; i-- {
		segment := strings.TrimSpace(segments[i])
		if segment != "" && segment != "." && segment != ".." {
			return segment
		}
	}
	return ""
}

func applyMusic(code []string, facts *Facts) {
	seen := make(map[string]struct{})
	add := func(folder string) {
		folder = strings.TrimSpace(folder)
		if folder == "" {
			return
		}
		key := strings.ToLower(folder)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		facts.MusicFolders = append(facts.MusicFolders, folder)
	}
	for _, line := range code {
		for _, m := range playMusicPattern.FindAllStringSubmatch(line, -1) {
			arg := m[1]
			idx := strings.IndexAny(arg, pathSeparators)
			if idx < 0 {
				continue
			}
			add(arg[:idx])
		}
	}
	for _, line := range code {
		if m := musicSubdirPattern.FindStringSubmatch(line); m != nil {
			add(strings.Trim(m[1], pathSeparators+" "))
			return
		}
	}
}
