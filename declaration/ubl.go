package declaration

import "strings"

const ublNamespacePrefix = "urn:oasis:names:specification:ubl:schema:xsd:"

// UBL recognizes OASIS Universal Business Language documents (Invoice,
// CreditNote, Order and the rest of the UBL document family).
type UBL struct{}

// NewUBL creates the UBL matcher.
func NewUBL() *UBL {
	return &UBL{}
}

// Type implements Declaration.
func (u *UBL) Type() string {
	return "xml.ubl"
}

// Verify implements Declaration.
func (u *UBL) Verify(content []byte, parent string) bool {
	return strings.HasPrefix(parent, ublNamespacePrefix)
}

// Detect implements Declaration. The identifier pairs the root element with
// its namespace, e.g.
// "Invoice::urn:oasis:names:specification:ubl:schema:xsd:Invoice-2".
func (u *UBL) Detect(content []byte, parent string) (string, error) {
	root, err := rootElement(content)
	if err != nil {
		return "", err
	}
	return root.Local + "::" + root.Space, nil
}

// Identifiers implements WithIdentifiers by reading the CustomizationID and
// ProfileID elements.
func (u *UBL) Identifiers(content []byte) (string, string) {
	customization := strings.TrimSpace(elementText(content, "CustomizationID"))
	profile := strings.TrimSpace(elementText(content, "ProfileID"))
	return customization, profile
}
