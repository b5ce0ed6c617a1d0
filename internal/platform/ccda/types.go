package ccda

// CDA namespaces and LOINC section codes for C-CDA 2.1 documents.
const (
	// CDA namespace
	CDANamespace = "urn:hl7-org:v3"

	// LOINC codes for section identification
	LOINCAllergies        = "48765-2"
	LOINCMedications      = "10160-0"
	LOINCProblems         = "11450-4"
	LOINCProcedures       = "47519-4"
	LOINCResults          = "30954-2"
	LOINCVitalSigns       = "8716-3"
	LOINCImmunizations    = "11369-6"
	LOINCSocialHistory    = "29762-2"
	LOINCPlanOfCare       = "18776-5"
	LOINCEncounters       = "46240-8"
	LOINCFunctionalStatus = "47420-5"

	// Code system OIDs
	OIDLOINC  = "2.16.840.1.113883.6.1"
	OIDRxNorm = "2.16.840.1.113883.6.88"
)

// Domain names used as ResultSet keys.
const (
	DomainMedications      = "medications"
	DomainResults          = "results"
	DomainProblems         = "problems"
	DomainProcedures       = "procedures"
	DomainEncounters       = "encounters"
	DomainVitals           = "vitals"
	DomainImmunizations    = "immunizations"
	DomainFunctionalStatus = "functional_status"
)

// Domains lists the eight domain names in their canonical order.
var Domains = []string{
	DomainMedications,
	DomainResults,
	DomainProblems,
	DomainProcedures,
	DomainEncounters,
	DomainVitals,
	DomainImmunizations,
	DomainFunctionalStatus,
}

// Parse outcomes reported in ParseMetadata.Status.
const (
	StatusParsed   = "parsed"
	StatusRejected = "rejected"
)

// Rejection reasons that are not derived from an underlying error.
const (
	ReasonOK             = "OK"
	ReasonRootMismatch   = "Root element is not ClinicalDocument."
	ReasonNoSections     = "No sections found in structuredBody."
	reasonParseFailedFmt = "XML parse failed: %v"
	reasonParseErrorFmt  = "XML parse error: %v"
)

// Record is one flat row of a domain table. Every field is a string and the
// empty string means the value was absent in the source document.
type Record interface {
	// Columns returns the column names in output order.
	Columns() []string
	// Values returns the field values aligned with Columns.
	Values() []string
}

// IntervalRecord is the row shape of medications, problems, procedures and
// encounters.
type IntervalRecord struct {
	StartRaw    string `json:"start_raw" yaml:"start_raw"`
	StopRaw     string `json:"stop_raw" yaml:"stop_raw"`
	StartISO    string `json:"start_iso" yaml:"start_iso"`
	StopISO     string `json:"stop_iso" yaml:"stop_iso"`
	Description string `json:"description" yaml:"description"`
	CodeSystem  string `json:"code_system" yaml:"code_system"`
	Code        string `json:"code" yaml:"code"`
}

var intervalColumns = []string{"start_raw", "stop_raw", "start_iso", "stop_iso", "description", "code_system", "code"}

func (r IntervalRecord) Columns() []string { return intervalColumns }

func (r IntervalRecord) Values() []string {
	return []string{r.StartRaw, r.StopRaw, r.StartISO, r.StopISO, r.Description, r.CodeSystem, r.Code}
}

// ObservationRecord is the row shape of results, vitals and functional status.
type ObservationRecord struct {
	StartRaw    string `json:"start_raw" yaml:"start_raw"`
	StartISO    string `json:"start_iso" yaml:"start_iso"`
	Description string `json:"description" yaml:"description"`
	CodeSystem  string `json:"code_system" yaml:"code_system"`
	Code        string `json:"code" yaml:"code"`
	Value       string `json:"value" yaml:"value"`
	Unit        string `json:"unit" yaml:"unit"`
}

var observationColumns = []string{"start_raw", "start_iso", "description", "code_system", "code", "value", "unit"}

func (r ObservationRecord) Columns() []string { return observationColumns }

func (r ObservationRecord) Values() []string {
	return []string{r.StartRaw, r.StartISO, r.Description, r.CodeSystem, r.Code, r.Value, r.Unit}
}

// AdministrationRecord is the row shape of immunizations.
type AdministrationRecord struct {
	StartRaw    string `json:"start_raw" yaml:"start_raw"`
	StartISO    string `json:"start_iso" yaml:"start_iso"`
	Description string `json:"description" yaml:"description"`
	CodeSystem  string `json:"code_system" yaml:"code_system"`
	Code        string `json:"code" yaml:"code"`
}

var administrationColumns = []string{"start_raw", "start_iso", "description", "code_system", "code"}

func (r AdministrationRecord) Columns() []string { return administrationColumns }

func (r AdministrationRecord) Values() []string {
	return []string{r.StartRaw, r.StartISO, r.Description, r.CodeSystem, r.Code}
}

// DomainColumns returns the column names of a domain's table, or nil for
// an unknown domain.
func DomainColumns(domain string) []string {
	switch domain {
	case DomainMedications, DomainProblems, DomainProcedures, DomainEncounters:
		return intervalColumns
	case DomainResults, DomainVitals, DomainFunctionalStatus:
		return observationColumns
	case DomainImmunizations:
		return administrationColumns
	}
	return nil
}

// ResultSet maps a domain name to its ordered records. A parsed document
// always carries all eight keys; a rejected one carries none.
type ResultSet map[string][]Record

// Counts returns the number of records per domain.
func (rs ResultSet) Counts() map[string]int {
	counts := make(map[string]int, len(rs))
	for domain, records := range rs {
		counts[domain] = len(records)
	}
	return counts
}

// ParseMetadata describes the outcome of one parse call.
type ParseMetadata struct {
	Status        string         `json:"status" yaml:"status"`
	Reason        string         `json:"reason" yaml:"reason"`
	SectionsFound []string       `json:"sections_found,omitempty" yaml:"sections_found,omitempty"`
	Counts        map[string]int `json:"counts,omitempty" yaml:"counts,omitempty"`
}

// Parsed reports whether the document was accepted.
func (m ParseMetadata) Parsed() bool {
	return m.Status == StatusParsed
}

func rejected(reason string) ParseMetadata {
	return ParseMetadata{Status: StatusRejected, Reason: reason}
}
