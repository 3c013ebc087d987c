package manifest

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/hashicorp/go-version"

	"github.com/ant-design/antd-tools/internal/config"
)

// Diff is the comparison between the local and the published file lists.
type Diff struct {
	Mode    config.DiffMode
	Missing []string
	Added   []string
}

// Blocking reports whether the diff needs confirmation.
func (d Diff) Blocking() bool { return len(d.Missing) > 0 }

// Empty reports whether both lists agree.
func (d Diff) Empty() bool { return len(d.Missing) == 0 && len(d.Added) == 0 }

// Compare computes the diff. In missing mode only remote files absent
// locally are reported; bidirectional mode also reports local additions.
func Compare(mode config.DiffMode, local, remote []string) Diff {
	d := Diff{Mode: mode, Missing: subtract(remote, local)}
	if mode == config.DiffModeBidirectional {
		d.Added = subtract(local, remote)
	}
	return d
}

func subtract(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, s := range b {
		in[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := in[s]; !ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

var leadingMajor = regexp.MustCompile(`^\d+`)

// VersionRange is the registry version to compare against: the override
// when given, else "<major>.x" of the local version, else "latest".
func VersionRange(local, override string) string {
	if override != "" {
		return override
	}
	if v, err := version.NewVersion(local); err == nil {
		return strconv.Itoa(v.Segments()[0]) + ".x"
	}
	if m := leadingMajor.FindString(local); m != "" {
		return m + ".x"
	}
	return "latest"
}
