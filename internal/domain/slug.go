package domain

import "strings"

const previewSlugPrefix = "preview-"

// PreviewSlug derives the stable preview identifier for a prompt id.
func PreviewSlug(promptID string) string {
	var b strings.Builder
	for _, r := range promptID {
		if b.Len() == 12 {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		return previewSlugPrefix + b.String()
	}
	raw := []rune(promptID)
	if len(raw) > 8 {
		raw = raw[:8]
	}
	return previewSlugPrefix + string(raw)
}
