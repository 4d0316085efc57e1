// Package snapshot holds the resolved site configuration for the lifetime of
// the process. The cell is assigned once during bootstrap and handed to every
// consumer explicitly; readers never receive a mutable view.
package snapshot
