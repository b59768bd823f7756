package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaas/vefa-validator/declaration"
)

const ublInvoice = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
         xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:CustomizationID>urn:cen.eu:en16931:2017</cbc:CustomizationID>
  <cbc:ProfileID>urn:fdc:peppol.eu:2017:poacc:billing:01:1.0</cbc:ProfileID>
</Invoice>`

const innerInvoice = `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
         xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:CustomizationID>urn:cen.eu:en16931:2017</cbc:CustomizationID>
  <cbc:ProfileID>urn:fdc:peppol.eu:2017:poacc:billing:01:1.0</cbc:ProfileID>
</Invoice>`

const wrappedInvoice = `<StandardBusinessDocument xmlns="http://www.unece.org/cefact/namespaces/StandardBusinessDocumentHeader">
<StandardBusinessDocumentHeader><HeaderVersion>1.0</HeaderVersion></StandardBusinessDocumentHeader>
` + innerInvoice + `
</StandardBusinessDocument>`

func newTestResolver(expectations bool) *Resolver {
	return NewResolver(declaration.NewDetector(), expectations, nil)
}

func TestResolvePlainDocument(t *testing.T) {
	doc, err := newTestResolver(false).Resolve(strings.NewReader(ublInvoice))
	require.NoError(t, err)

	require.Len(t, doc.Declarations(), 1)
	assert.Equal(t, "xml.ubl", doc.Declarations()[0].Type)
	assert.Equal(t, Declaration{
		CustomizationID: "urn:cen.eu:en16931:2017",
		ProfileID:       "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0",
	}, doc.Declaration())
	assert.Equal(t, ublInvoice, string(doc.Content()))
	assert.Nil(t, doc.Expectation())
}

func TestResolveEnvelopedDocument(t *testing.T) {
	doc, err := newTestResolver(false).Resolve(strings.NewReader(wrappedInvoice))
	require.NoError(t, err)

	require.Len(t, doc.Declarations(), 2)
	assert.Equal(t, "xml.sbdh", doc.Declarations()[0].Type)
	assert.Equal(t, "SBDH:1.0", doc.Declarations()[0].Identifier)
	assert.Equal(t, "xml.ubl", doc.Declarations()[1].Type)

	// The inner payload survives unwrapping byte for byte.
	assert.Equal(t, innerInvoice, string(doc.Content()))
	assert.Equal(t, "urn:cen.eu:en16931:2017", doc.Declaration().CustomizationID)
}

func TestResolveEnvelopeWithUnknownPayload(t *testing.T) {
	content := `<StandardBusinessDocument xmlns="http://www.unece.org/cefact/namespaces/StandardBusinessDocumentHeader">
<StandardBusinessDocumentHeader><HeaderVersion>1.0</HeaderVersion></StandardBusinessDocumentHeader>
<Custom xmlns="urn:example:custom"/>
</StandardBusinessDocument>`

	doc, err := newTestResolver(false).Resolve(strings.NewReader(content))
	require.NoError(t, err)

	// The chain ends at the envelope; no identifiers can be extracted.
	require.Len(t, doc.Declarations(), 1)
	assert.Equal(t, "xml.sbdh", doc.Declarations()[0].Type)
	assert.Equal(t, Declaration{}, doc.Declaration())
	assert.Equal(t, `<Custom xmlns="urn:example:custom"/>`, string(doc.Content()))
}

func TestResolveUnknownDocument(t *testing.T) {
	_, err := newTestResolver(false).Resolve(strings.NewReader(`<Thing xmlns="urn:example:thing"/>`))
	assert.ErrorIs(t, err, declaration.ErrNoDeclaration)
}

func TestResolveExpectationMode(t *testing.T) {
	fixture := `<?xml version="1.0"?>
<!--
TEST
Fixture with one anticipated warning.

warning: BR-01
-->
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"/>`

	doc, err := newTestResolver(true).Resolve(strings.NewReader(fixture))
	require.NoError(t, err)
	require.NotNil(t, doc.Expectation())
	assert.Equal(t, "Fixture with one anticipated warning.", doc.Expectation().Description)
	assert.True(t, doc.Expectation().Anticipates("BR-01"))

	// Outside expectation mode the same content yields none.
	doc, err = newTestResolver(false).Resolve(strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Nil(t, doc.Expectation())
}

func TestDeclarationString(t *testing.T) {
	d := Declaration{CustomizationID: "cust", ProfileID: "prof"}
	assert.Equal(t, "cust#prof", d.String())
}
