// Package plugin defines the module contract of the editor backend and the
// registry that drives module lifecycles and route mounting.
package plugin

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a module. Path is relative to
// the module's /api/{name} mount point.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Plugin defines the interface that every backend module implements.
type Plugin interface {
	// Name returns the module's unique identifier and URL segment
	// (e.g. "parts", "favorites").
	Name() string

	// Version returns the module's semantic version.
	Version() string

	// Init configures the module from its plugins.<name> config subtree.
	Init(config *viper.Viper, logger *zap.Logger) error

	// Start begins background work such as the initial catalog load.
	Start(ctx context.Context) error

	// Stop releases resources.
	Stop() error

	// Routes returns the HTTP routes this module exposes.
	Routes() []Route
}
