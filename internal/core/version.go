package core

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"bomkit/internal/types"
)

// versionCache memoizes parsed versions so that ranking the same release
// versions repeatedly during one composition does not re-parse them.
// Failed parses are cached too.
type versionCache struct {
	sem    map[string]*semver.Version
	pep    map[string]*pep440.Version
	deb    map[string]*debversion.Version
	semErr map[string]bool
	pepErr map[string]bool
	debErr map[string]bool
}

func newVersionCache() *versionCache {
	return &versionCache{
		sem:    map[string]*semver.Version{},
		pep:    map[string]*pep440.Version{},
		deb:    map[string]*debversion.Version{},
		semErr: map[string]bool{},
		pepErr: map[string]bool{},
		debErr: map[string]bool{},
	}
}

func (c *versionCache) semverVersion(value string) (*semver.Version, bool) {
	if parsed, ok := c.sem[value]; ok {
		return parsed, true
	}
	if c.semErr[value] {
		return nil, false
	}
	parsed, err := semver.NewVersion(value)
	if err != nil {
		c.semErr[value] = true
		return nil, false
	}
	c.sem[value] = parsed
	return parsed, true
}

func (c *versionCache) pepVersion(value string) (*pep440.Version, bool) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, true
	}
	if c.pepErr[value] {
		return nil, false
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		c.pepErr[value] = true
		return nil, false
	}
	c.pep[value] = &parsed
	return &parsed, true
}

func (c *versionCache) debVersion(value string) (*debversion.Version, bool) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, true
	}
	if c.debErr[value] {
		return nil, false
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		c.debErr[value] = true
		return nil, false
	}
	c.deb[value] = &parsed
	return &parsed, true
}

// compare returns -1, 0 or 1. Both values are ranked with the first
// scheme that parses both of them; lexical order is the last resort.
func (c *versionCache) compare(a string, b string) int {
	if a == b {
		return 0
	}
	if v1, ok := c.semverVersion(a); ok {
		if v2, ok := c.semverVersion(b); ok {
			return v1.Compare(v2)
		}
	}
	if v1, ok := c.pepVersion(a); ok {
		if v2, ok := c.pepVersion(b); ok {
			return v1.Compare(*v2)
		}
	}
	if v1, ok := c.debVersion(a); ok {
		if v2, ok := c.debVersion(b); ok {
			return v1.Compare(*v2)
		}
	}
	return strings.Compare(a, b)
}

// rankReleaseVersions orders release versions from newest to oldest.
// Versions that compare equal keep a stable lexical order so ranking does
// not depend on map iteration.
func rankReleaseVersions(versions []types.ReleaseVersion, cache *versionCache) []types.ReleaseVersion {
	ranked := append([]types.ReleaseVersion(nil), versions...)
	sort.SliceStable(ranked, func(i, j int) bool {
		cmp := cache.compare(string(ranked[i]), string(ranked[j]))
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}
