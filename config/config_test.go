package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	validator "github.com/contaas/vefa-validator"
)

const billingConfiguration = `identifier: peppol-billing-3.0
title: PEPPOL BIS Billing 3.0
build: "2026-05-12"
customizationId: urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0
profileId: urn:fdc:peppol.eu:2017:poacc:billing:01:1.0
inherit: en16931-base
checks:
  - path: rules/peppol.rules.yaml
stylesheet:
  path: stylesheets/billing.tmpl
suppress:
  - assertion: PEPPOL-COMMON
    flag: WARNING
`

func TestParse(t *testing.T) {
	configuration, err := Parse([]byte(billingConfiguration))
	require.NoError(t, err)

	assert.Equal(t, "peppol-billing-3.0", configuration.Identifier)
	assert.Equal(t, "PEPPOL BIS Billing 3.0", configuration.Title)
	assert.Equal(t, "en16931-base", configuration.Inherit)
	assert.True(t, configuration.Matches(
		"urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0",
		"urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"))

	// Checks inherit the declaring configuration and build.
	require.Len(t, configuration.Checks, 1)
	assert.Equal(t, "peppol-billing-3.0", configuration.Checks[0].Configuration)
	assert.Equal(t, "2026-05-12", configuration.Checks[0].Build)

	// The stylesheet identifier defaults to its path.
	require.NotNil(t, configuration.Stylesheet)
	assert.Equal(t, "stylesheets/billing.tmpl", configuration.Stylesheet.Identifier)

	require.Len(t, configuration.Suppress, 1)
	assert.Equal(t, validator.FlagWarning, configuration.Suppress[0].Flag)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("title: no identifier\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("{broken"))
	assert.Error(t, err)
}

// resolverMap serves parents from a fixed set, normalizing them on demand.
type resolverMap map[string]*Configuration

func (r resolverMap) ByIdentifier(identifier string) (*Configuration, error) {
	configuration, ok := r[identifier]
	if !ok {
		return nil, fmt.Errorf("not found: %s", identifier)
	}
	if err := configuration.Normalize(r); err != nil {
		return nil, err
	}
	return configuration, nil
}

func TestNormalizeFlattensParentFirst(t *testing.T) {
	parent, err := Parse([]byte(`identifier: en16931-base
title: EN 16931 base rules
checks:
  - path: rules/en16931.rules.yaml
suppress:
  - assertion: EN-OLD
    flag: OK
stylesheet:
  path: stylesheets/base.tmpl
`))
	require.NoError(t, err)
	parent.MarkNotLoaded("rules/missing.rules.yaml")

	child, err := Parse([]byte(billingConfiguration))
	require.NoError(t, err)

	resolver := resolverMap{"en16931-base": parent}
	require.NoError(t, child.Normalize(resolver))

	// Parent checks run before the child's own.
	require.Len(t, child.Checks, 2)
	assert.Equal(t, "rules/en16931.rules.yaml", child.Checks[0].Path)
	assert.Equal(t, "en16931-base", child.Checks[0].Configuration)
	assert.Equal(t, "rules/peppol.rules.yaml", child.Checks[1].Path)

	// Suppressions and not-loaded keys flatten the same way.
	require.Len(t, child.Suppress, 2)
	assert.Equal(t, "EN-OLD", child.Suppress[0].Assertion)
	assert.Equal(t, []string{"rules/missing.rules.yaml"}, child.NotLoaded())

	// The child's own stylesheet wins over the parent's.
	assert.Equal(t, "stylesheets/billing.tmpl", child.Stylesheet.Path)

	// The chain is consumed.
	assert.Empty(t, child.Inherit)
}

func TestNormalizeInheritsStylesheet(t *testing.T) {
	parent, err := Parse([]byte(`identifier: base
title: Base
stylesheet:
  path: stylesheets/base.tmpl
`))
	require.NoError(t, err)

	child, err := Parse([]byte(`identifier: child
title: Child
inherit: base
`))
	require.NoError(t, err)

	require.NoError(t, child.Normalize(resolverMap{"base": parent}))
	require.NotNil(t, child.Stylesheet)
	assert.Equal(t, "stylesheets/base.tmpl", child.Stylesheet.Path)
}

func TestNormalizeIdempotent(t *testing.T) {
	parent, err := Parse([]byte(`identifier: base
title: Base
checks:
  - path: rules/base.rules.yaml
`))
	require.NoError(t, err)

	child, err := Parse([]byte(`identifier: child
title: Child
inherit: base
checks:
  - path: rules/child.rules.yaml
`))
	require.NoError(t, err)

	resolver := resolverMap{"base": parent}
	require.NoError(t, child.Normalize(resolver))
	require.NoError(t, child.Normalize(resolver))
	assert.Len(t, child.Checks, 2)
}

func TestNormalizeSelfInheritance(t *testing.T) {
	configuration, err := Parse([]byte(`identifier: loop
title: Loop
inherit: loop
`))
	require.NoError(t, err)

	err = configuration.Normalize(resolverMap{"loop": configuration})
	assert.ErrorIs(t, err, ErrInheritanceLoop)
}

func TestFilterFlag(t *testing.T) {
	configuration, err := Parse([]byte(`identifier: suppressing
title: Suppressing
suppress:
  - assertion: BR-CL
    flag: OK
  - assertion: BR
    flag: WARNING
`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		assertion validator.Assertion
		want      validator.Flag
	}{
		{"first matching prefix wins", validator.Assertion{Identifier: "BR-CL-01", Flag: validator.FlagError}, validator.FlagOK},
		{"second rule by prefix", validator.Assertion{Identifier: "BR-S-02", Flag: validator.FlagError}, validator.FlagWarning},
		{"rule never raises", validator.Assertion{Identifier: "BR-S-02", Flag: validator.FlagOK}, validator.FlagOK},
		{"no rule matches", validator.Assertion{Identifier: "UBL-CR-001", Flag: validator.FlagFatal}, validator.FlagFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, configuration.FilterFlag(tt.assertion))
		})
	}
}
