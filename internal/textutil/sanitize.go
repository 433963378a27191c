package textutil

import (
	"runtime"
	"strings"
)

// fileNameReplacer maps characters that Windows or Linux reject in file names.
// Path separators and colons become dashes so "Title: Subtitle" stays readable.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a table base name safe for export on any cabinet OS.
// Control characters are dropped and trailing dots are trimmed, since
// Windows silently strips them.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = fileNameReplacer.Replace(strings.TrimSpace(name))
	return strings.TrimRight(strings.TrimSpace(name), ". ")
}

// HostFileName returns name unchanged when the running OS can store it as a
// file name and SanitizeFileName(name) otherwise. Exported scripts must keep
// the table's base name for VPX standalone to load them.
func HostFileName(name string) string {
	if fileNameWritable(name, runtime.GOOS) {
		return name
	}
	return SanitizeFileName(name)
}

func fileNameWritable(name, goos string) bool {
	switch strings.TrimSpace(name) {
	case "", ".", "..":
		return false
	}
	if strings.ContainsAny(name, "/\x00") {
		return false
	}
	if goos != "windows" {
		return true
	}
	if strings.ContainsAny(name, `\:*?"<>|`) || strings.HasSuffix(name, ".") || strings.HasSuffix(name, " ") {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 })
}
