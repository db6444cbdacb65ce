package upload

import (
	"strings"
)

// Prefix under which stored assets are served
const PublicPrefix = "/api/uploads/"

// PublicURL maps stored path to the URL it is served from
// "uploads/bands/x.png" -> "/api/uploads/bands/x.png", empty stays empty
func PublicURL(path string) string {
	if path == "" {
		return ""
	}
	return PublicPrefix + strings.TrimPrefix(path, PathPrefix)
}
