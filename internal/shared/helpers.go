// Package shared provides common utility functions used across multiple
// packages in the bomkit codebase.
package shared

import (
	"fmt"
	"path"
	"strings"
)

// NormalizeOrigin lowercases a source repository location and strips the
// scheme, credentials, "scm:git:" style prefixes, a trailing ".git" and
// trailing slashes so that equivalent URLs name the same origin.
func NormalizeOrigin(value string) string {
	origin := strings.TrimSpace(value)
	for {
		lower := strings.ToLower(origin)
		if !strings.HasPrefix(lower, "scm:") {
			break
		}
		idx := strings.Index(origin[4:], ":")
		if idx < 0 {
			break
		}
		origin = origin[4+idx+1:]
	}
	if idx := strings.Index(origin, "://"); idx >= 0 {
		origin = origin[idx+3:]
	}
	if idx := strings.Index(origin, "@"); idx >= 0 && !strings.Contains(origin[:idx], "/") {
		origin = origin[idx+1:]
	}
	// git@host:org/repo
	if idx := strings.Index(origin, ":"); idx >= 0 && !strings.Contains(origin[:idx], "/") {
		rest := origin[idx+1:]
		if rest != "" && (rest[0] < '0' || rest[0] > '9') {
			origin = origin[:idx] + "/" + rest
		}
	}
	origin = strings.TrimRight(origin, "/")
	origin = strings.TrimSuffix(origin, ".git")
	return strings.ToLower(origin)
}

// ArtifactPath returns the repository layout path of an artifact:
// group/as/dirs/artifact/version/artifact-version[-classifier].type
func ArtifactPath(groupID, artifactID, version, classifier, artifactType string) string {
	file := artifactID + "-" + version
	if classifier != "" {
		file += "-" + classifier
	}
	file += "." + artifactType
	return path.Join(strings.ReplaceAll(groupID, ".", "/"), artifactID, version, file)
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, body)
}
