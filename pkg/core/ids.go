package core

import (
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// NormalizeID canonicalises a record or table ID to the hyphenated UUID form.
// It accepts bare 32-hex IDs, hyphenated UUIDs and share URLs whose last path
// segment ends in an ID. Anything else is returned trimmed and unchanged.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if u, ok := parseID(id); ok {
		return u.String()
	}
	if parsed, err := url.Parse(id); err == nil && parsed.Host != "" {
		seg := path.Base(parsed.Path)
		if i := strings.LastIndex(seg, "-"); i >= 0 {
			seg = seg[i+1:]
		}
		if u, ok := parseID(seg); ok {
			return u.String()
		}
	}
	return id
}

// ValidID reports whether id normalises to a UUID.
func ValidID(id string) bool {
	_, err := uuid.Parse(NormalizeID(id))
	return err == nil
}

func parseID(s string) (uuid.UUID, bool) {
	if len(s) != 32 && len(s) != 36 {
		return uuid.UUID{}, false
	}
	u, err := uuid.Parse(s)
	return u, err == nil
}
