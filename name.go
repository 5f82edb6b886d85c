package kioto

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/streamspace-dev/kioto/kerr"
)

// Version is a plugin's semantic version. The zero value is the sentinel
// "0.0.0", meaning "latest" wherever a Name is parsed without a version.
type Version struct {
	Major, Minor, Patch int
}

// String renders "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsLatest reports whether v is the zero/sentinel version.
func (v Version) IsLatest() bool {
	return v == Version{}
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, kerr.IncompletePluginName(s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// Name is the canonical identifier of a plugin family: an ordered tuple
// of (package, module, plugin, version, qualifiers, framework). Two
// plugins with the same Name but different content are distinguished by
// their commit id, not by Name.
//
// The recognized string forms are:
//
//	package/module.plugin           (version defaults to the "0.0.0" / latest sentinel)
//	package/module.plugin@version
//
// The canonical registry key is Path(): package/version/module/plugin.
type Name struct {
	Package    string
	Module     string
	Plugin     string
	Version    Version
	Qualifiers []string
	Framework  string

	// forms caches the three equivalent string renderings, computed once
	// at parse/construction time per spec.md §4.3 ("A Name computes and
	// caches a set of equivalent string forms").
	forms nameForms
}

type nameForms struct {
	short string
	full  string
	path  string
}

// nameRef matches "package/module.plugin" with an optional "@version" suffix.
var nameRef = regexp.MustCompile(`^([^/@]+)/([^./@]+)\.([^@/]+)(?:@(.+))?$`)

// ParseName parses either of the two recognized string forms described on
// Name. A malformed input returns kerr.KindIncompletePluginName.
func ParseName(s string) (Name, error) {
	m := nameRef.FindStringSubmatch(s)
	if m == nil {
		return Name{}, kerr.IncompletePluginName(s)
	}

	n := Name{Package: m[1], Module: m[2], Plugin: m[3]}
	if m[4] != "" {
		v, err := ParseVersion(m[4])
		if err != nil {
			return Name{}, kerr.IncompletePluginName(s)
		}
		n.Version = v
	}
	n.cacheForms()
	return n, nil
}

// NewName constructs a Name directly (e.g. when a Plugin reports its own
// identity rather than being parsed from config) and caches its forms.
func NewName(pkg, module, plugin string, version Version) Name {
	n := Name{Package: pkg, Module: module, Plugin: plugin, Version: version}
	n.cacheForms()
	return n
}

func (n *Name) cacheForms() {
	n.forms = nameForms{
		short: fmt.Sprintf("%s/%s.%s", n.Package, n.Module, n.Plugin),
		full:  fmt.Sprintf("%s/%s.%s@%s", n.Package, n.Module, n.Plugin, n.Version),
		path:  fmt.Sprintf("%s/%s/%s/%s", n.Package, n.Version, n.Module, n.Plugin),
	}
}

// ShortRef renders "package/module.plugin".
func (n Name) ShortRef() string {
	if n.forms.short == "" {
		n.cacheForms()
	}
	return n.forms.short
}

// FullRef renders "package/module.plugin@version". Parsing a Name from
// its own FullRef output yields a byte-identical FullRef (spec.md §8
// round-trip property).
func (n Name) FullRef() string {
	if n.forms.full == "" {
		n.cacheForms()
	}
	return n.forms.full
}

// Path renders the canonical registry key "package/version/module/plugin".
func (n Name) Path() string {
	if n.forms.path == "" {
		n.cacheForms()
	}
	return n.forms.path
}

// Forms returns every string rendering that is an acceptable lookup key
// for this Name: short, full, and path form.
func (n Name) Forms() []string {
	return []string{n.ShortRef(), n.FullRef(), n.Path()}
}

func (n Name) String() string { return n.FullRef() }

// Matches reports whether s equals any of n's accepted string forms.
func (n Name) Matches(s string) bool {
	for _, f := range n.Forms() {
		if f == s {
			return true
		}
	}
	return false
}

// WithQualifiers returns a copy of n carrying the given qualifiers.
func (n Name) WithQualifiers(qualifiers ...string) Name {
	n.Qualifiers = append([]string(nil), qualifiers...)
	n.cacheForms()
	return n
}

// WithFramework returns a copy of n tagged with the owning framework.
func (n Name) WithFramework(framework string) Name {
	n.Framework = framework
	n.cacheForms()
	return n
}
