package util

import (
	"net/http"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Slugify derives an identity key from an event name: lowercase with runs of
// whitespace collapsed to single hyphens. Used for sources without a stable
// numeric id (CodeChef, Devpost, MLH); identically-named events collide.
func Slugify(name string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// RemoveFormatFromString strips scraped-HTML formatting artifacts.
func RemoveFormatFromString(input string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(input, "  ", ""), "\n", ""), "\t", "")
}

func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func EnableCors(w *http.ResponseWriter) {
	(*w).Header().Set("Access-Control-Allow-Origin", "*")
}
