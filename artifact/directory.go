package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/contaas/vefa-validator/config"
)

// packagesIndex is the optional packages.yaml at the store root.
type packagesIndex struct {
	Packages []Package `yaml:"packages"`
}

// configurationGlob discovers configuration documents when no packages.yaml
// is present.
const configurationGlob = "configurations/**/*.{yaml,yml}"

type declarationKey struct {
	customizationID string
	profileID       string
}

// DirectoryStore serves artifacts from a directory tree. Configuration
// documents are indexed once at construction; artifact content is read on
// demand. Artifacts referenced by a configuration but missing from the tree
// are tracked as not loaded instead of failing the whole store.
type DirectoryStore struct {
	root     string
	packages []Package
	logger   *slog.Logger

	configurations map[string][]byte
	byIdentifier   map[string]string
	byDeclaration  map[declarationKey]string

	notLoaded []string
}

// NewDirectoryStore indexes the directory tree rooted at root. The tree may
// carry a packages.yaml listing packages and their configuration documents;
// without one, every document matching "configurations/**/*.yaml" forms a
// single implicit package.
func NewDirectoryStore(root string, logger *slog.Logger) (*DirectoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := &DirectoryStore{
		root:           root,
		logger:         logger,
		configurations: make(map[string][]byte),
		byIdentifier:   make(map[string]string),
		byDeclaration:  make(map[declarationKey]string),
	}

	if err := store.loadPackages(); err != nil {
		return nil, err
	}
	store.indexConfigurations()
	store.verifyArtifacts()

	return store, nil
}

func (s *DirectoryStore) loadPackages() error {
	raw, err := os.ReadFile(filepath.Join(s.root, "packages.yaml"))
	switch {
	case err == nil:
		var index packagesIndex
		if err := yaml.Unmarshal(raw, &index); err != nil {
			return fmt.Errorf("artifact: parsing packages.yaml: %w", err)
		}
		s.packages = index.Packages
		return nil

	case os.IsNotExist(err):
		paths, err := doublestar.Glob(os.DirFS(s.root), configurationGlob)
		if err != nil {
			return fmt.Errorf("artifact: discovering configurations: %w", err)
		}
		sort.Strings(paths)
		if len(paths) > 0 {
			s.packages = []Package{{Name: "local", Configurations: paths}}
		}
		return nil

	default:
		return fmt.Errorf("artifact: reading packages.yaml: %w", err)
	}
}

// indexConfigurations parses every declared configuration document and
// indexes it by identifier and by declaration pair. Documents that fail to
// load or parse are recorded as not loaded.
func (s *DirectoryStore) indexConfigurations() {
	for _, pkg := range s.packages {
		for _, path := range pkg.Configurations {
			raw, err := os.ReadFile(filepath.Join(s.root, path))
			if err != nil {
				s.markNotLoaded(path, err)
				continue
			}
			configuration, err := config.Parse(raw)
			if err != nil {
				s.markNotLoaded(path, err)
				continue
			}

			s.configurations[path] = raw
			s.byIdentifier[configuration.Identifier] = path
			key := declarationKey{
				customizationID: configuration.CustomizationID,
				profileID:       configuration.ProfileID,
			}
			if key.customizationID != "" && key.profileID != "" {
				s.byDeclaration[key] = path
			}
		}
	}
}

// verifyArtifacts checks that every artifact referenced by an indexed
// configuration is present in the tree.
func (s *DirectoryStore) verifyArtifacts() {
	for _, raw := range s.configurations {
		configuration, err := config.Parse(raw)
		if err != nil {
			continue
		}
		for _, check := range configuration.Checks {
			s.verifyArtifact(check.Path)
		}
		if configuration.Stylesheet != nil {
			s.verifyArtifact(configuration.Stylesheet.Path)
		}
	}
}

func (s *DirectoryStore) verifyArtifact(key string) {
	if _, err := os.Stat(filepath.Join(s.root, key)); err != nil {
		s.markNotLoaded(key, err)
	}
}

func (s *DirectoryStore) markNotLoaded(key string, err error) {
	for _, existing := range s.notLoaded {
		if existing == key {
			return
		}
	}
	s.logger.Warn("artifact not loaded",
		slog.String("key", key),
		slog.String("error", err.Error()))
	s.notLoaded = append(s.notLoaded, key)
}

// Packages implements Store.
func (s *DirectoryStore) Packages() []Package {
	return s.packages
}

// Configuration implements Store.
func (s *DirectoryStore) Configuration(customizationID, profileID string) ([]byte, error) {
	key := declarationKey{customizationID: customizationID, profileID: profileID}
	path, ok := s.byDeclaration[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s", ErrConfigurationNotFound, customizationID, profileID)
	}
	return s.configurations[path], nil
}

// ConfigurationByIdentifier implements Store.
func (s *DirectoryStore) ConfigurationByIdentifier(identifier string) ([]byte, error) {
	path, ok := s.byIdentifier[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfigurationNotFound, identifier)
	}
	return s.configurations[path], nil
}

// Artifact implements Store.
func (s *DirectoryStore) Artifact(key string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.root, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, key)
	}
	return content, nil
}

// NotLoaded implements Store.
func (s *DirectoryStore) NotLoaded() []string {
	return append([]string{}, s.notLoaded...)
}
