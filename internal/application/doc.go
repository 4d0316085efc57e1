// Package application provides application initialization and dependency wiring.
// It builds the site base from its files, resolves it once, stores the snapshot
// and creates the handlers, routers and HTTP server, keeping the main package
// focused on CLI parsing and orchestration.
package application
