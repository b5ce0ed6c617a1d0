package ccda

import (
	"strings"

	"github.com/beevik/etree"
)

// DomainExtractor pulls the records of one clinical domain out of the
// sections whose titles it matches.
type DomainExtractor interface {
	// Domain returns the ResultSet key the extractor fills.
	Domain() string
	// Match reports whether a section title belongs to the domain.
	Match(title string) bool
	// Extract returns one record per entry found in the section.
	Extract(sec Section) []Record
}

// DefaultExtractors returns the eight domain extractors in canonical order.
func DefaultExtractors() []DomainExtractor {
	return []DomainExtractor{
		medicationsExtractor{},
		resultsExtractor{},
		problemsExtractor{},
		proceduresExtractor{},
		encountersExtractor{},
		vitalsExtractor{},
		immunizationsExtractor{},
		functionalStatusExtractor{},
	}
}

// extractAll runs x over every matching section, preserving section order and
// entry order within each section. The result is never nil.
func extractAll(x DomainExtractor, sections []Section) []Record {
	records := []Record{}
	for _, sec := range sections {
		if sec.Element != nil && x.Match(sec.Title) {
			records = append(records, x.Extract(sec)...)
		}
	}
	return records
}

// ---- Medications ----

type medicationsExtractor struct{}

func (medicationsExtractor) Domain() string { return DomainMedications }

func (medicationsExtractor) Match(title string) bool {
	return strings.HasPrefix(strings.ToLower(title), "medication")
}

// Extract reads the first substanceAdministration of each entry so that
// nested administrations (free-text sig, preconditions) are not counted as
// separate medications.
func (medicationsExtractor) Extract(sec Section) []Record {
	var records []Record
	for _, entry := range descendants(sec.Element, "entry") {
		sa := firstDescendant(entry, "substanceAdministration")
		if sa == nil {
			continue
		}
		start := attr(firstDescendant(sa, "low"), "value")
		stop := attr(firstDescendant(sa, "high"), "value")

		rec := IntervalRecord{
			StartRaw: start,
			StopRaw:  stop,
			StartISO: ToISO(start),
			StopISO:  ToISO(stop),
		}
		if code := materialElement(sa, "code"); code != nil {
			rec.Description = attr(code, "displayName")
			if rec.Description == "" {
				rec.Description = text(childElement(code, "originalText"))
			}
			rec.CodeSystem = attr(code, "codeSystemName")
			if rec.CodeSystem == "" {
				rec.CodeSystem = attr(code, "codeSystem")
			}
			rec.Code = attr(code, "code")
		} else {
			rec.Description = text(materialElement(sa, "name"))
		}
		records = append(records, rec)
	}
	return records
}

// ---- Results ----

type resultsExtractor struct{}

func (resultsExtractor) Domain() string { return DomainResults }

func (resultsExtractor) Match(title string) bool { return titleContains(title, "result") }

func (resultsExtractor) Extract(sec Section) []Record {
	return loincObservations(sec)
}

// ---- Problems ----

type problemsExtractor struct{}

func (problemsExtractor) Domain() string { return DomainProblems }

func (problemsExtractor) Match(title string) bool { return titleContains(title, "problem") }

// Extract codes each problem from the observation value, which carries the
// diagnosis (typically SNOMED) rather than the assertion code.
func (problemsExtractor) Extract(sec Section) []Record {
	var records []Record
	for _, obs := range descendants(sec.Element, "observation") {
		start, stop := effectiveInterval(obs)
		value := childElement(obs, "value")
		records = append(records, IntervalRecord{
			StartRaw:    start,
			StopRaw:     stop,
			StartISO:    ToISO(start),
			StopISO:     ToISO(stop),
			Description: attr(value, "displayName"),
			CodeSystem:  attr(value, "codeSystemName"),
			Code:        attr(value, "code"),
		})
	}
	return records
}

// ---- Procedures ----

type proceduresExtractor struct{}

func (proceduresExtractor) Domain() string { return DomainProcedures }

func (proceduresExtractor) Match(title string) bool {
	return titleContains(title, "procedure", "surger")
}

func (proceduresExtractor) Extract(sec Section) []Record {
	return codedIntervals(sec, "procedure")
}

// ---- Encounters ----

type encountersExtractor struct{}

func (encountersExtractor) Domain() string { return DomainEncounters }

func (encountersExtractor) Match(title string) bool { return titleContains(title, "encounter") }

func (encountersExtractor) Extract(sec Section) []Record {
	return codedIntervals(sec, "encounter")
}

// ---- Vital signs ----

type vitalsExtractor struct{}

func (vitalsExtractor) Domain() string { return DomainVitals }

func (vitalsExtractor) Match(title string) bool { return titleContains(title, "vital") }

func (vitalsExtractor) Extract(sec Section) []Record {
	return loincObservations(sec)
}

// ---- Immunizations ----

type immunizationsExtractor struct{}

func (immunizationsExtractor) Domain() string { return DomainImmunizations }

func (immunizationsExtractor) Match(title string) bool {
	return titleContains(title, "immunization")
}

func (immunizationsExtractor) Extract(sec Section) []Record {
	var records []Record
	for _, sa := range descendants(sec.Element, "substanceAdministration") {
		start := effectiveLow(sa)
		code := materialElement(sa, "code")
		records = append(records, AdministrationRecord{
			StartRaw:    start,
			StartISO:    ToISO(start),
			Description: attr(code, "displayName"),
			CodeSystem:  attr(code, "codeSystemName"),
			Code:        attr(code, "code"),
		})
	}
	return records
}

// ---- Functional status ----

type functionalStatusExtractor struct{}

func (functionalStatusExtractor) Domain() string { return DomainFunctionalStatus }

func (functionalStatusExtractor) Match(title string) bool {
	return titleContains(title, "functional")
}

func (functionalStatusExtractor) Extract(sec Section) []Record {
	return loincObservations(sec)
}

// ---- Shared entry walkers ----

// loincObservations reads every observation in sec as a LOINC-coded
// measurement. The code system is always reported as LOINC.
func loincObservations(sec Section) []Record {
	var records []Record
	for _, obs := range descendants(sec.Element, "observation") {
		code := childElement(obs, "code")
		value := childElement(obs, "value")
		start := effectiveLow(obs)
		records = append(records, ObservationRecord{
			StartRaw:    start,
			StartISO:    ToISO(start),
			Description: attr(code, "displayName"),
			CodeSystem:  "LOINC",
			Code:        attr(code, "code"),
			Value:       attr(value, "value"),
			Unit:        attr(value, "unit"),
		})
	}
	return records
}

// codedIntervals reads every tag element in sec using its own code and
// effectiveTime interval.
func codedIntervals(sec Section, tag string) []Record {
	var records []Record
	for _, el := range descendants(sec.Element, tag) {
		start, stop := effectiveInterval(el)
		code := childElement(el, "code")
		records = append(records, IntervalRecord{
			StartRaw:    start,
			StopRaw:     stop,
			StartISO:    ToISO(start),
			StopISO:     ToISO(stop),
			Description: attr(code, "displayName"),
			CodeSystem:  attr(code, "codeSystemName"),
			Code:        attr(code, "code"),
		})
	}
	return records
}

// ---- Helpers ----

// descendants returns every CDA element named tag below el, in document
// order. el itself is not included.
func descendants(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	walkDescendants(el, tag, func(d *etree.Element) bool {
		out = append(out, d)
		return true
	})
	return out
}

// firstDescendant returns the first CDA element named tag below el in
// document order, or nil.
func firstDescendant(el *etree.Element, tag string) *etree.Element {
	var found *etree.Element
	walkDescendants(el, tag, func(d *etree.Element) bool {
		found = d
		return false
	})
	return found
}

// walkDescendants visits matching elements in pre-order until visit returns
// false. It reports whether the walk ran to completion.
func walkDescendants(el *etree.Element, tag string, visit func(*etree.Element) bool) bool {
	for _, c := range el.ChildElements() {
		if c.Tag == tag && inCDANamespace(c) && !visit(c) {
			return false
		}
		if !walkDescendants(c, tag, visit) {
			return false
		}
	}
	return true
}

// firstDescendantPath follows tags as a chain of descendant steps and
// returns the first element reached in document order.
func firstDescendantPath(el *etree.Element, tags ...string) *etree.Element {
	var found *etree.Element
	walkDescendants(el, tags[0], func(d *etree.Element) bool {
		if len(tags) == 1 {
			found = d
		} else {
			found = firstDescendantPath(d, tags[1:]...)
		}
		return found == nil
	})
	return found
}

// materialElement returns the first tag element under the administered
// material of sa.
func materialElement(sa *etree.Element, tag string) *etree.Element {
	return firstDescendantPath(sa, "consumable", "manufacturedProduct", "manufacturedMaterial", tag)
}

func titleContains(title string, keywords ...string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func effectiveInterval(el *etree.Element) (low, high string) {
	eff := childElement(el, "effectiveTime")
	if eff == nil {
		return "", ""
	}
	return attr(childElement(eff, "low"), "value"), attr(childElement(eff, "high"), "value")
}

func effectiveLow(el *etree.Element) string {
	low, _ := effectiveInterval(el)
	return low
}

// attr returns the attribute value of el, or "" when el is nil or the
// attribute is missing.
func attr(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(key, "")
}

func text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
