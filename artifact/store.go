// Package artifact supplies raw validation artifacts: configuration
// documents, check definitions and stylesheets. The engine only depends on
// the Store interface; the backing source may be a directory tree, an
// archive or a remote service.
package artifact

import "errors"

// ErrConfigurationNotFound is returned when no configuration document
// matches the requested identifiers.
var ErrConfigurationNotFound = errors.New("artifact: configuration not found")

// ErrNotLoaded is returned when an artifact key is known but its content
// could not be loaded.
var ErrNotLoaded = errors.New("artifact: not loaded")

// Package describes one installed artifact package.
type Package struct {
	// Name is the package name, e.g. "eu.peppol.bis3".
	Name string `yaml:"name" json:"name"`

	// Version is the package build or release version.
	Version string `yaml:"version" json:"version"`

	// Configurations lists the configuration document paths the package
	// provides, relative to the store root.
	Configurations []string `yaml:"configurations" json:"configurations"`
}

// Store supplies raw artifacts by key.
type Store interface {
	// Packages lists the installed packages.
	Packages() []Package

	// Configuration returns the raw configuration document matching both
	// identifiers, or ErrConfigurationNotFound.
	Configuration(customizationID, profileID string) ([]byte, error)

	// ConfigurationByIdentifier returns the raw configuration document
	// with the given identifier, or ErrConfigurationNotFound. Used to
	// resolve inheritance chains.
	ConfigurationByIdentifier(identifier string) ([]byte, error)

	// Artifact returns the content for an artifact key. Keys the store
	// knows about but failed to load yield ErrNotLoaded.
	Artifact(key string) ([]byte, error)

	// NotLoaded lists the artifact keys that failed to load.
	NotLoaded() []string
}
