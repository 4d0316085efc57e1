// Package siteconfig resolves the portfolio site configuration consumed by the
// host framework: head metadata, module activation order, image pipeline
// options, CMS wiring, stylesheets and build options.
//
// Resolution merges a Base (compiled-in defaults, optionally overlaid by a YAML
// file and a Slice Machine project file) with an Environment snapshot, fills
// unset optional fields, validates the result and returns an immutable
// Resolved snapshot. Every violation is reported at once in a ValidationError.
package siteconfig
