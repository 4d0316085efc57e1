package siteconfig

import (
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Format is an image output format tag understood by the image pipeline.
type Format string

const (
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
	FormatJPEG Format = "jpeg"
	FormatJPG  Format = "jpg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
)

var knownFormats = map[Format]struct{}{
	FormatWebP: {},
	FormatAVIF: {},
	FormatJPEG: {},
	FormatJPG:  {},
	FormatPNG:  {},
	FormatGIF:  {},
}

// Breakpoint tier names accepted in the image screens map.
const (
	TierXS  = "xs"
	TierSM  = "sm"
	TierMD  = "md"
	TierLG  = "lg"
	TierXL  = "xl"
	TierXXL = "xxl"
)

var knownTiers = map[string]struct{}{
	TierXS: {}, TierSM: {}, TierMD: {}, TierLG: {}, TierXL: {}, TierXXL: {},
}

// Page transition modes.
const (
	TransitionDefault = "default"
	TransitionInOut   = "in-out"
	TransitionOutIn   = "out-in"
)

// AccessMode describes how the CMS client authenticates.
type AccessMode string

const (
	// AccessPublic means no credential was supplied.
	AccessPublic AccessMode = "public"
	// AccessPrivate means requests carry the access token.
	AccessPrivate AccessMode = "private"
)

// Link is a single <link> entry of the document head.
type Link struct {
	Rel  string `json:"rel" yaml:"rel"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Href string `json:"href" yaml:"href"`
}

// PageTransition names the transition applied between routes.
type PageTransition struct {
	Name string `json:"name" yaml:"name"`
	Mode string `json:"mode" yaml:"mode"`
}

// Base holds the declared configuration before environment overrides and
// defaulting. Nil pointers, nil slices and nil maps mean "unset".
type Base struct {
	Site        SiteBase
	Modules     []string
	Image       ImageBase
	CMS         CMSBase
	StyleSheets []string
	Build       BuildBase
}

// SiteBase is the declared head metadata.
type SiteBase struct {
	Title          string
	Charset        string
	Viewport       string
	Links          []Link
	Meta           map[string]string
	PageTransition *PageTransition
}

// ImageBase is the declared image pipeline configuration.
type ImageBase struct {
	Quality     *int
	Formats     []Format
	Breakpoints map[string]int
}

// CMSBase is the declared CMS wiring. The access token is never part of a
// Base; it is read from the environment during resolution.
type CMSBase struct {
	Endpoint string
	Preview  bool
	Toolbar  bool
}

// BuildBase is the declared build/runtime compatibility configuration.
type BuildBase struct {
	CompatibilityDate string
	Devtools          *bool
	Experimental      map[string]bool
}

// SiteMetadata is the resolved document head configuration.
type SiteMetadata struct {
	Title          string            `json:"title" yaml:"title"`
	Charset        string            `json:"charset" yaml:"charset"`
	Viewport       string            `json:"viewport" yaml:"viewport"`
	Links          []Link            `json:"links" yaml:"links"`
	Meta           map[string]string `json:"meta" yaml:"meta"`
	PageTransition PageTransition    `json:"pageTransition" yaml:"page_transition"`
}

// ImageOptions is the resolved image pipeline configuration.
type ImageOptions struct {
	Quality     int            `json:"quality" yaml:"quality"`
	Formats     []Format       `json:"formats" yaml:"formats"`
	Breakpoints map[string]int `json:"breakpoints" yaml:"breakpoints"`
}

// NamedBreakpoint pairs a tier name with its width in pixels.
type NamedBreakpoint struct {
	Name  string
	Width int
}

// OrderedBreakpoints returns the breakpoints sorted by ascending width, ties
// broken by name.
func (o ImageOptions) OrderedBreakpoints() []NamedBreakpoint {
	out := make([]NamedBreakpoint, 0, len(o.Breakpoints))
	for name, width := range o.Breakpoints {
		out = append(out, NamedBreakpoint{Name: name, Width: width})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Width != out[j].Width {
			return out[i].Width < out[j].Width
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CMSOptions is the resolved CMS client configuration.
type CMSOptions struct {
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	AccessToken Secret `json:"accessToken,omitempty" yaml:"access_token,omitempty"`
	Preview     bool   `json:"preview" yaml:"preview"`
	Toolbar     bool   `json:"toolbar" yaml:"toolbar"`
}

// AccessMode reports whether the CMS client runs with a credential.
func (o CMSOptions) AccessMode() AccessMode {
	if o.AccessToken.IsSet() {
		return AccessPrivate
	}
	return AccessPublic
}

// APIURL returns the content API URL. A bare repository name expands to the
// Prismic CDN endpoint; a full URL is returned unchanged.
func (o CMSOptions) APIURL() string {
	if strings.Contains(o.Endpoint, "://") {
		return o.Endpoint
	}
	return "https://" + o.Endpoint + ".cdn.prismic.io/api/v2"
}

// ConventionalEndpoint reports whether the endpoint is a lowercase Prismic
// repository name or an https API URL. Other values still resolve.
func (o CMSOptions) ConventionalEndpoint() bool {
	if repositoryNamePattern.MatchString(o.Endpoint) {
		return true
	}
	u, err := url.Parse(o.Endpoint)
	return err == nil && u.Scheme == "https" && u.Host != ""
}

var repositoryNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// BuildOptions is the resolved build/runtime compatibility configuration.
type BuildOptions struct {
	CompatibilityDate string          `json:"compatibilityDate" yaml:"compatibility_date"`
	Devtools          bool            `json:"devtools" yaml:"devtools"`
	Experimental      map[string]bool `json:"experimental" yaml:"experimental"`
}

const redacted = "[REDACTED]"

// Secret is a credential that never renders its value.
type Secret string

// String returns a placeholder for a set secret and "" otherwise.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// GoString keeps %#v from leaking the value.
func (s Secret) GoString() string {
	return s.String()
}

// IsSet reports whether a value is present.
func (s Secret) IsSet() bool {
	return s != ""
}

// Reveal returns the raw credential for the CMS client.
func (s Secret) Reveal() string {
	return string(s)
}

// MarshalJSON encodes the placeholder, never the value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalYAML encodes the placeholder, never the value.
func (s Secret) MarshalYAML() (any, error) {
	return s.String(), nil
}
