package siteconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// Violation is one failed constraint.
type Violation struct {
	Field      string
	Constraint string
	Value      any
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s (got %#v)", v.Field, v.Constraint, v.Value)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (v Violation) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("field", v.Field)
	enc.AddString("constraint", v.Constraint)
	enc.AddString("value", fmt.Sprintf("%#v", v.Value))
	return nil
}

// Violations is an ordered list of failed constraints.
type Violations []Violation

// MarshalLogArray implements zapcore.ArrayMarshaler.
func (vs Violations) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, v := range vs {
		if err := enc.AppendObject(v); err != nil {
			return err
		}
	}
	return nil
}

// ValidationError reports every violation found while resolving.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid site configuration: %d violation(s)", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// Fields returns the field paths of all violations in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

type validator struct {
	err error
}

func (v *validator) fail(field, constraint string, value any) {
	v.err = multierr.Append(v.err, Violation{Field: field, Constraint: constraint, Value: value})
}

func (v *validator) result() error {
	if v.err == nil {
		return nil
	}
	errs := multierr.Errors(v.err)
	out := make(Violations, 0, len(errs))
	for _, err := range errs {
		var violation Violation
		if errors.As(err, &violation) {
			out = append(out, violation)
		}
	}
	return &ValidationError{Violations: out}
}

func validate(r *Resolved) error {
	v := &validator{}
	validateSite(v, r.site)

	for i, m := range r.modules {
		if strings.TrimSpace(m) == "" {
			v.fail(fmt.Sprintf("modules[%d]", i), "must not be empty", m)
		}
	}

	validateImage(v, r.image)
	validateCMS(v, r.cms)

	for i, path := range r.styleSheets {
		if strings.TrimSpace(path) == "" {
			v.fail(fmt.Sprintf("styleSheets[%d]", i), "must not be empty", path)
		}
	}

	if _, err := time.Parse(compatibilityDateLayout, r.build.CompatibilityDate); err != nil {
		v.fail("build.compatibilityDate", "must be an ISO date (YYYY-MM-DD)", r.build.CompatibilityDate)
	}

	return v.result()
}

func validateSite(v *validator, site SiteMetadata) {
	if strings.TrimSpace(site.Title) == "" {
		v.fail("site.title", "must not be empty", site.Title)
	}
	for i, link := range site.Links {
		if strings.TrimSpace(link.Rel) == "" {
			v.fail(fmt.Sprintf("site.links[%d].rel", i), "must not be empty", link.Rel)
		}
		if strings.TrimSpace(link.Href) == "" {
			v.fail(fmt.Sprintf("site.links[%d].href", i), "must not be empty", link.Href)
		}
	}
	if _, ok := site.Meta[""]; ok {
		v.fail("site.meta", "names must not be empty", "")
	}
	if strings.TrimSpace(site.PageTransition.Name) == "" {
		v.fail("site.pageTransition.name", "must not be empty", site.PageTransition.Name)
	}
	switch site.PageTransition.Mode {
	case TransitionDefault, TransitionInOut, TransitionOutIn:
	default:
		v.fail("site.pageTransition.mode", "must be one of default, in-out, out-in", site.PageTransition.Mode)
	}
}

func validateImage(v *validator, image ImageOptions) {
	if image.Quality < 0 || image.Quality > 100 {
		v.fail("image.quality", "must be between 0 and 100", image.Quality)
	}
	for i, f := range image.Formats {
		if _, ok := knownFormats[f]; !ok {
			v.fail(fmt.Sprintf("image.formats[%d]", i), "must be one of webp, avif, jpeg, jpg, png, gif", string(f))
		}
	}

	tiers := make([]string, 0, len(image.Breakpoints))
	for tier := range image.Breakpoints {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		field := "image.breakpoints." + tier
		if _, ok := knownTiers[tier]; !ok {
			v.fail(field, "must be one of xs, sm, md, lg, xl, xxl", tier)
			continue
		}
		if width := image.Breakpoints[tier]; width <= 0 {
			v.fail(field, "must be a positive pixel width", width)
		}
	}
}

func validateCMS(v *validator, cms CMSOptions) {
	if strings.TrimSpace(cms.Endpoint) == "" {
		v.fail("cms.endpoint", "must not be empty", cms.Endpoint)
	}
}
