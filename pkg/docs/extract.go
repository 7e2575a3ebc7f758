package docs

import (
	"regexp"
	"strings"
)

// libraryIDPattern matches /org/repo identifiers in resolver output.
var libraryIDPattern = regexp.MustCompile(`/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+)`)

// fileExtensions are repo-segment suffixes that indicate a path fragment
// rather than a library identifier (e.g. "app/page.tsx" in example code).
// ".js" is deliberately absent: library names routinely end in .js
// (next.js, chart.js, video.js).
var fileExtensions = []string{
	".jsx", ".ts", ".tsx", ".mjs", ".cjs",
	".md", ".mdx", ".json", ".yml", ".yaml",
	".css", ".scss", ".html", ".txt",
	".py", ".go", ".rs", ".sh",
}

// placeholderID is the literal the resolver uses in its own usage text.
const placeholderID = "/org/project"

// ExtractLibraryIDs extracts all /org/repo library identifiers from
// resolver output text, in order of first appearance, deduplicated.
// Path fragments with file extensions and the documentation service's
// own placeholder are excluded.
func ExtractLibraryIDs(text string) []string {
	matches := libraryIDPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, id := range matches {
		if seen[id] {
			continue
		}
		seen[id] = true

		if strings.EqualFold(id, placeholderID) {
			continue
		}
		if hasFileExtension(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// hasFileExtension reports whether the identifier's last segment ends in a
// known source or document file extension.
func hasFileExtension(id string) bool {
	lower := strings.ToLower(id)
	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
