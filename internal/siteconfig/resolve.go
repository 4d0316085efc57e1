package siteconfig

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
	"go.uber.org/zap/zapcore"
)

// Resolved is the validated, immutable site configuration. Accessors return
// copies; the snapshot cannot be changed after Resolve returns it.
type Resolved struct {
	site        SiteMetadata
	modules     []string
	image       ImageOptions
	cms         CMSOptions
	styleSheets []string
	build       BuildOptions
	fingerprint string
}

// View is a serialisable copy of a Resolved snapshot. The access token
// marshals as a placeholder.
type View struct {
	Site        SiteMetadata `json:"site" yaml:"site"`
	Modules     []string     `json:"modules" yaml:"modules"`
	Image       ImageOptions `json:"image" yaml:"image"`
	CMS         CMSOptions   `json:"cms" yaml:"cms"`
	StyleSheets []string     `json:"styleSheets" yaml:"stylesheets"`
	Build       BuildOptions `json:"build" yaml:"build"`
}

// Resolve merges base with env overrides, applies defaults and validates the
// result. It fails with a *ValidationError listing every violation.
func Resolve(base Base, env Environment) (*Resolved, error) {
	r := &Resolved{
		site:        resolveSite(base.Site),
		modules:     slices.Clone(base.Modules),
		image:       resolveImage(base.Image),
		cms:         resolveCMS(base.CMS, env),
		styleSheets: slices.Clone(base.StyleSheets),
		build:       resolveBuild(base.Build),
	}
	if r.modules == nil {
		r.modules = []string{}
	}
	if r.styleSheets == nil {
		r.styleSheets = []string{}
	}

	if err := validate(r); err != nil {
		return nil, err
	}

	sum, err := fingerprint(r.View())
	if err != nil {
		return nil, fmt.Errorf("fingerprint configuration: %w", err)
	}
	r.fingerprint = sum

	return r, nil
}

func resolveSite(b SiteBase) SiteMetadata {
	site := SiteMetadata{
		Title:    b.Title,
		Charset:  b.Charset,
		Viewport: b.Viewport,
		Links:    slices.Clone(b.Links),
		Meta:     maps.Clone(b.Meta),
		PageTransition: PageTransition{
			Name: DefaultTransitionName,
			Mode: TransitionDefault,
		},
	}
	if strings.TrimSpace(site.Charset) == "" {
		site.Charset = DefaultCharset
	}
	if site.Links == nil {
		site.Links = []Link{}
	}
	if site.Meta == nil {
		site.Meta = map[string]string{}
	}
	if b.PageTransition != nil {
		site.PageTransition = *b.PageTransition
		if site.PageTransition.Mode == "" {
			site.PageTransition.Mode = TransitionDefault
		}
	}
	return site
}

func resolveImage(b ImageBase) ImageOptions {
	image := ImageOptions{
		Quality:     DefaultQuality,
		Formats:     slices.Clone(b.Formats),
		Breakpoints: maps.Clone(b.Breakpoints),
	}
	if b.Quality != nil {
		image.Quality = *b.Quality
	}
	if len(image.Formats) == 0 {
		image.Formats = DefaultFormats()
	}
	if image.Breakpoints == nil {
		image.Breakpoints = DefaultBreakpoints()
	}
	for tier, width := range DefaultBreakpoints() {
		if _, ok := image.Breakpoints[tier]; !ok {
			image.Breakpoints[tier] = width
		}
	}
	return image
}

func resolveCMS(b CMSBase, env Environment) CMSOptions {
	cms := CMSOptions{
		Endpoint: b.Endpoint,
		Preview:  b.Preview,
		Toolbar:  b.Toolbar,
	}
	if v, ok := override(env, EnvRepositoryName); ok {
		cms.Endpoint = v
	}
	if strings.TrimSpace(cms.Endpoint) == "" {
		cms.Endpoint = DefaultEndpoint
	}
	if v, ok := override(env, EnvAccessToken); ok {
		cms.AccessToken = Secret(v)
	}
	return cms
}

func resolveBuild(b BuildBase) BuildOptions {
	build := BuildOptions{
		CompatibilityDate: b.CompatibilityDate,
		Devtools:          true,
		Experimental:      maps.Clone(b.Experimental),
	}
	if build.CompatibilityDate == "" {
		build.CompatibilityDate = DefaultCompatibilityDate
	}
	if b.Devtools != nil {
		build.Devtools = *b.Devtools
	}
	if build.Experimental == nil {
		build.Experimental = map[string]bool{}
	}
	return build
}

// Site returns the document head configuration.
func (r *Resolved) Site() SiteMetadata {
	site := r.site
	site.Links = slices.Clone(r.site.Links)
	site.Meta = maps.Clone(r.site.Meta)
	return site
}

// Modules returns the module identifiers in activation order.
func (r *Resolved) Modules() []string {
	return slices.Clone(r.modules)
}

// Image returns the image pipeline options.
func (r *Resolved) Image() ImageOptions {
	image := r.image
	image.Formats = slices.Clone(r.image.Formats)
	image.Breakpoints = maps.Clone(r.image.Breakpoints)
	return image
}

// CMS returns the CMS client options, including the in-memory credential.
func (r *Resolved) CMS() CMSOptions {
	return r.cms
}

// StyleSheets returns the stylesheet paths in application order.
func (r *Resolved) StyleSheets() []string {
	return slices.Clone(r.styleSheets)
}

// Build returns the build/runtime compatibility options.
func (r *Resolved) Build() BuildOptions {
	build := r.build
	build.Experimental = maps.Clone(r.build.Experimental)
	return build
}

// Fingerprint is a stable BLAKE3 digest of the redacted snapshot.
func (r *Resolved) Fingerprint() string {
	return r.fingerprint
}

// View returns a serialisable copy of the snapshot.
func (r *Resolved) View() View {
	return View{
		Site:        r.Site(),
		Modules:     r.Modules(),
		Image:       r.Image(),
		CMS:         r.CMS(),
		StyleSheets: r.StyleSheets(),
		Build:       r.Build(),
	}
}

// MarshalLogObject summarises the snapshot for structured logs.
func (r *Resolved) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("title", r.site.Title)
	enc.AddString("cms_endpoint", r.cms.Endpoint)
	enc.AddString("cms_access_mode", string(r.cms.AccessMode()))
	enc.AddInt("modules", len(r.modules))
	enc.AddInt("image_quality", r.image.Quality)
	enc.AddString("compatibility_date", r.build.CompatibilityDate)
	enc.AddString("fingerprint", r.fingerprint)
	return nil
}

func fingerprint(v View) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
