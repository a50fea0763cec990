package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces       = regexp.MustCompile(`\s+`)
	slugHyphenRuns   = regexp.MustCompile(`-+`)
)

// GenerateWorkspaceSlug builds a URL-safe slug from a workspace name,
// suffixed with the tail of the owner id to keep slugs unique across
// identically named workspaces.
func GenerateWorkspaceSlug(name string, ownerID uint64) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = slugInvalidChars.ReplaceAllString(base, "")
	base = slugSpaces.ReplaceAllString(base, "-")
	base = slugHyphenRuns.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > 40 {
		base = base[:40]
	}

	suffix := fmt.Sprintf("%d", ownerID)
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return base + "-" + suffix
}
