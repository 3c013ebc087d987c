package publish

import (
	"github.com/hashicorp/go-version"
)

// PrereleaseTag is the dist-tag used for pre-release versions.
const PrereleaseTag = "next"

// ResolveDistTag picks the npm dist-tag: the --npm-tag flag, then the
// configured tag, then "next" for pre-release versions. An empty result
// leaves the registry default in place.
func ResolveDistTag(flag, configured, pkgVersion string) string {
	if flag != "" {
		return flag
	}
	if configured != "" {
		return configured
	}
	if v, err := version.NewVersion(pkgVersion); err == nil && v.Prerelease() != "" {
		return PrereleaseTag
	}
	return ""
}

// NpmPublishArgs are the arguments passed to the npm client.
func NpmPublishArgs(distTag string) []string {
	args := []string{"publish"}
	if distTag != "" {
		args = append(args, "--tag", distTag)
	}
	return args
}
