package ccda

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Section describes one structuredBody section. Element points into the
// parsed document and must not outlive it.
type Section struct {
	Title      string
	Code       string
	CodeSystem string
	Element    *etree.Element
}

// Kind returns the LOINC-derived section kind, or "" when the section code
// is not one of the known C-CDA section codes.
func (s Section) Kind() string {
	return SectionKind(s.Code)
}

// SectionSummary is the serializable view of a Section.
type SectionSummary struct {
	Title      string `json:"title" yaml:"title"`
	Code       string `json:"code" yaml:"code"`
	CodeSystem string `json:"code_system" yaml:"code_system"`
	Kind       string `json:"kind" yaml:"kind"`
}

// Summary drops the element reference.
func (s Section) Summary() SectionSummary {
	return SectionSummary{Title: s.Title, Code: s.Code, CodeSystem: s.CodeSystem, Kind: s.Kind()}
}

// parseTree builds the element tree for text and returns its root.
func parseTree(text string) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromString(text); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("no element found")
	}
	return root, nil
}

// DiscoverSections returns every structuredBody/component/section below root
// in document order. Each step of the path must be in the CDA namespace or
// in no namespace. An empty result is not an error.
func DiscoverSections(root *etree.Element) []Section {
	if root == nil {
		return nil
	}

	var sections []Section
	for _, body := range descendants(root, "structuredBody") {
		for _, comp := range childElements(body, "component") {
			for _, sec := range childElements(comp, "section") {
				sections = append(sections, describeSection(sec))
			}
		}
	}
	return sections
}

func describeSection(sec *etree.Element) Section {
	s := Section{Element: sec}
	if title := childElement(sec, "title"); title != nil {
		s.Title = strings.TrimSpace(title.Text())
	}
	if code := childElement(sec, "code"); code != nil {
		s.Code = code.SelectAttrValue("code", "")
		s.CodeSystem = code.SelectAttrValue("codeSystem", "")
	}
	return s
}

// childElements returns the direct CDA children of el with the given local
// name.
func childElements(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag && inCDANamespace(c) {
			out = append(out, c)
		}
	}
	return out
}

func childElement(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag && inCDANamespace(c) {
			return c
		}
	}
	return nil
}

func inCDANamespace(el *etree.Element) bool {
	ns := el.NamespaceURI()
	return ns == "" || ns == CDANamespace
}

// SectionKind maps a LOINC section code to a section kind name.
func SectionKind(code string) string {
	switch code {
	case LOINCAllergies:
		return "allergies"
	case LOINCMedications:
		return DomainMedications
	case LOINCProblems:
		return DomainProblems
	case LOINCProcedures:
		return DomainProcedures
	case LOINCResults:
		return DomainResults
	case LOINCVitalSigns:
		return DomainVitals
	case LOINCImmunizations:
		return DomainImmunizations
	case LOINCSocialHistory:
		return "social_history"
	case LOINCPlanOfCare:
		return "plan_of_care"
	case LOINCEncounters:
		return DomainEncounters
	case LOINCFunctionalStatus:
		return DomainFunctionalStatus
	default:
		return ""
	}
}
