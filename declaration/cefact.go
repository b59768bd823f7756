package declaration

import "strings"

const cefactNamespacePrefix = "urn:un:unece:uncefact:data:standard:"

// CrossIndustry recognizes UN/CEFACT cross-industry documents such as the
// CrossIndustryInvoice.
type CrossIndustry struct{}

// NewCrossIndustry creates the UN/CEFACT matcher.
func NewCrossIndustry() *CrossIndustry {
	return &CrossIndustry{}
}

// Type implements Declaration.
func (c *CrossIndustry) Type() string {
	return "xml.uncefact"
}

// Verify implements Declaration.
func (c *CrossIndustry) Verify(content []byte, parent string) bool {
	return strings.HasPrefix(parent, cefactNamespacePrefix)
}

// Detect implements Declaration. When the document context declares a
// guideline, the identifier pairs the root element with the guideline,
// e.g. "CrossIndustryInvoice::urn:cen.eu:en16931:2017". Otherwise it falls
// back to "<namespace>::<root element>".
func (c *CrossIndustry) Detect(content []byte, parent string) (string, error) {
	root, err := rootElement(content)
	if err != nil {
		return "", err
	}

	if guideline := c.guideline(content); guideline != "" {
		return root.Local + "::" + guideline, nil
	}
	return root.Space + "::" + root.Local, nil
}

// Identifiers implements WithIdentifiers. The guideline identifier doubles
// as customization; the business process parameter supplies the profile.
func (c *CrossIndustry) Identifiers(content []byte) (string, string) {
	profile := strings.TrimSpace(
		nestedElementText(content, "BusinessProcessSpecifiedDocumentContextParameter", "ID"))
	return c.guideline(content), profile
}

func (c *CrossIndustry) guideline(content []byte) string {
	return strings.TrimSpace(
		nestedElementText(content, "GuidelineSpecifiedDocumentContextParameter", "ID"))
}
