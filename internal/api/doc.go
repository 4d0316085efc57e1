// Package api exposes the resolved site configuration to host-framework
// collaborators over a read-only JSON API.
package api
