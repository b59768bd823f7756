// Package config models the resolved validation configuration for a
// document type: the ordered, inheritance-flattened list of checks, the
// optional presentation stylesheet and the suppression rules declared for
// the type.
package config

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/contaas/vefa-validator"
	"gopkg.in/yaml.v3"
)

// ErrInheritanceLoop is returned when a configuration's parent chain cycles.
var ErrInheritanceLoop = errors.New("config: inheritance loop")

// Check names one validation artifact to execute.
type Check struct {
	// Path is the artifact key, also the pool key for its executor.
	Path string `yaml:"path"`

	// Configuration identifies the configuration that declared the check.
	Configuration string `yaml:"configuration,omitempty"`

	// Build is the declaring configuration's build stamp.
	Build string `yaml:"build,omitempty"`
}

// Stylesheet names the presentation transform for a document type.
type Stylesheet struct {
	// Identifier keys the renderer pool. Defaults to Path when absent.
	Identifier string `yaml:"identifier,omitempty"`

	// Path is the artifact key of the transform.
	Path string `yaml:"path"`
}

// Suppression downgrades findings by identifier prefix.
type Suppression struct {
	// Assertion is the identifier prefix the rule applies to.
	Assertion string `yaml:"assertion"`

	// Flag is the highest severity a matching finding may contribute.
	Flag validator.Flag `yaml:"flag"`
}

// Configuration is the per-document-type validation setup. A freshly parsed
// configuration may declare a parent; Normalize flattens the chain.
type Configuration struct {
	// Identifier names the configuration uniquely within the store.
	Identifier string `yaml:"identifier"`

	// Title is the display title used on reports.
	Title string `yaml:"title"`

	// Build is the artifact package build stamp.
	Build string `yaml:"build,omitempty"`

	// CustomizationID and ProfileID select this configuration for a
	// resolved document declaration.
	CustomizationID string `yaml:"customizationId"`
	ProfileID       string `yaml:"profileId"`

	// Inherit optionally names a parent configuration whose checks run
	// before this configuration's own.
	Inherit string `yaml:"inherit,omitempty"`

	// Checks lists the checks in execution order.
	Checks []Check `yaml:"checks"`

	// Stylesheet optionally declares the presentation transform.
	Stylesheet *Stylesheet `yaml:"stylesheet,omitempty"`

	// Suppress lists severity downgrades for this document type.
	Suppress []Suppression `yaml:"suppress,omitempty"`

	notLoaded  []string
	normalized bool
}

// Parse reads a configuration document.
func Parse(raw []byte) (*Configuration, error) {
	var configuration Configuration
	if err := yaml.Unmarshal(raw, &configuration); err != nil {
		return nil, fmt.Errorf("config: parsing configuration: %w", err)
	}
	if configuration.Identifier == "" {
		return nil, errors.New("config: configuration without identifier")
	}
	for i := range configuration.Checks {
		if configuration.Checks[i].Configuration == "" {
			configuration.Checks[i].Configuration = configuration.Identifier
		}
		if configuration.Checks[i].Build == "" {
			configuration.Checks[i].Build = configuration.Build
		}
	}
	if configuration.Stylesheet != nil && configuration.Stylesheet.Identifier == "" {
		configuration.Stylesheet.Identifier = configuration.Stylesheet.Path
	}
	return &configuration, nil
}

// Resolver resolves parent configurations by identifier. Implementations
// return normalized configurations, so shared ancestors flatten once.
type Resolver interface {
	ByIdentifier(identifier string) (*Configuration, error)
}

// Normalize flattens the inheritance chain: the parent's normalized checks,
// suppressions and not-loaded keys come before this configuration's own.
// Normalizing twice is a no-op.
func (c *Configuration) Normalize(resolver Resolver) error {
	if c.normalized {
		return nil
	}
	c.normalized = true

	if c.Inherit == "" {
		return nil
	}
	if c.Inherit == c.Identifier {
		return fmt.Errorf("%w: %s", ErrInheritanceLoop, c.Identifier)
	}

	parent, err := resolver.ByIdentifier(c.Inherit)
	if err != nil {
		return fmt.Errorf("config: resolving parent %q of %q: %w", c.Inherit, c.Identifier, err)
	}

	c.Checks = append(append([]Check{}, parent.Checks...), c.Checks...)
	c.Suppress = append(append([]Suppression{}, parent.Suppress...), c.Suppress...)
	c.notLoaded = append(append([]string{}, parent.notLoaded...), c.notLoaded...)
	if c.Stylesheet == nil {
		c.Stylesheet = parent.Stylesheet
	}
	c.Inherit = ""

	return nil
}

// MarkNotLoaded records an artifact key the store could not serve.
func (c *Configuration) MarkNotLoaded(key string) {
	c.notLoaded = append(c.notLoaded, key)
}

// NotLoaded returns the artifact keys that failed to load.
func (c *Configuration) NotLoaded() []string {
	return c.notLoaded
}

// Matches reports whether the configuration applies to the declaration pair.
func (c *Configuration) Matches(customizationID, profileID string) bool {
	return c.CustomizationID == customizationID && c.ProfileID == profileID
}

// FilterFlag implements validator.FlagFilterer using the suppression rules.
// The first matching rule wins; a rule can only lower a severity.
func (c *Configuration) FilterFlag(assertion validator.Assertion) validator.Flag {
	for _, rule := range c.Suppress {
		if !strings.HasPrefix(assertion.Identifier, rule.Assertion) {
			continue
		}
		if rule.Flag < assertion.Flag {
			return rule.Flag
		}
		return assertion.Flag
	}
	return assertion.Flag
}
