package coderepo

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned when a repository URL cannot be parsed into
// a (provider, owner, name) triple.
var ErrInvalidURL = fmt.Errorf("invalid repository url")

var (
	httpsPattern = regexp.MustCompile(`^https?://([a-zA-Z0-9.\-]+)/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	sshPattern   = regexp.MustCompile(`^git@([a-zA-Z0-9.\-]+):([^/]+)/([^/]+?)(?:\.git)?/?$`)
	shortPattern = regexp.MustCompile(`^([a-zA-Z0-9_.\-]+)/([a-zA-Z0-9_.\-]+)$`)
)

// ParseURL resolves a remote URI into (provider, owner, name, canonicalURL).
// Supported forms: "https://host/owner/repo(.git)?", "git@host:owner/repo.git",
// and the bare "owner/repo" shorthand (assumed to be hosted on github.com).
// Anything else is rejected with ErrInvalidURL.
func ParseURL(uri string) (provider, owner, name, canonicalURL string, err error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", "", "", "", ErrInvalidURL
	}

	if m := httpsPattern.FindStringSubmatch(uri); m != nil {
		host, owner, name := m[1], m[2], m[3]
		return hostToProvider(host), owner, name, fmt.Sprintf("https://%s/%s/%s", host, owner, name), nil
	}

	if m := sshPattern.FindStringSubmatch(uri); m != nil {
		host, owner, name := m[1], m[2], m[3]
		return hostToProvider(host), owner, name, fmt.Sprintf("https://%s/%s/%s", host, owner, name), nil
	}

	if m := shortPattern.FindStringSubmatch(uri); m != nil {
		owner, name := m[1], m[2]
		return "github", owner, name, fmt.Sprintf("https://github.com/%s/%s", owner, name), nil
	}

	return "", "", "", "", fmt.Errorf("%w: %q", ErrInvalidURL, uri)
}

func hostToProvider(host string) string {
	host = strings.ToLower(host)
	switch {
	case strings.Contains(host, "github"):
		return "github"
	case strings.Contains(host, "gitlab"):
		return "gitlab"
	case strings.Contains(host, "bitbucket"):
		return "bitbucket"
	default:
		return host
	}
}
