package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
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

// SanitizeFileName replaces filesystem-unsafe characters in a single path
// element. Slashes, backslashes, colons, and asterisks become dashes; other
// unsafe characters are removed.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(fileNameReplacer.Replace(strings.TrimSpace(name)))
}

// Stem returns the sanitized base name of path without its extension, or
// fallback when nothing usable is left ("clip.final.mp4" yields "clip.final").
func Stem(path, fallback string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == string(filepath.Separator) {
		return fallback
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = SanitizeFileName(base)
	if base == "" || base == "." || base == ".." {
		return fallback
	}
	return base
}
