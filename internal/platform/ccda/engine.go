package ccda

import (
	"fmt"
	"sync"
)

// Engine validates C-CDA documents and extracts the eight domain tables. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	extractors []DomainExtractor
	concurrent bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrentExtraction runs the domain extractors in parallel. Output is
// identical to the sequential mode.
func WithConcurrentExtraction() Option {
	return func(e *Engine) {
		e.concurrent = true
	}
}

// NewEngine creates an Engine with the default domain extractors.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{extractors: DefaultExtractors()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analysis is the full outcome of one document: the domain tables, the
// status record and the discovered sections.
type Analysis struct {
	Tables   ResultSet        `json:"tables" yaml:"tables"`
	Metadata ParseMetadata    `json:"metadata" yaml:"metadata"`
	Sections []SectionSummary `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// ParseText runs a default Engine over text.
func ParseText(text string) (ResultSet, ParseMetadata) {
	return defaultEngine.Parse(text)
}

var defaultEngine = NewEngine()

// Parse validates text, discovers its sections and runs every domain
// extractor. A rejected document yields an empty ResultSet; the reason is
// reported only through the metadata.
func (e *Engine) Parse(text string) (ResultSet, ParseMetadata) {
	a := e.Analyze(text)
	return a.Tables, a.Metadata
}

// Analyze is Parse plus the section listing.
func (e *Engine) Analyze(text string) Analysis {
	if v := Validate(text); !v.OK {
		return Analysis{Tables: ResultSet{}, Metadata: rejected(v.Reason)}
	}

	root, err := parseTree(text)
	if err != nil {
		return Analysis{Tables: ResultSet{}, Metadata: rejected(fmt.Sprintf(reasonParseErrorFmt, err))}
	}

	sections := DiscoverSections(root)
	if len(sections) == 0 {
		return Analysis{Tables: ResultSet{}, Metadata: rejected(ReasonNoSections)}
	}

	tables := e.extract(sections)

	titles := make([]string, len(sections))
	summaries := make([]SectionSummary, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
		summaries[i] = s.Summary()
	}

	return Analysis{
		Tables: tables,
		Metadata: ParseMetadata{
			Status:        StatusParsed,
			Reason:        ReasonOK,
			SectionsFound: titles,
			Counts:        tables.Counts(),
		},
		Sections: summaries,
	}
}

func (e *Engine) extract(sections []Section) ResultSet {
	tables := make(ResultSet, len(Domains))
	for _, d := range Domains {
		tables[d] = []Record{}
	}

	if !e.concurrent {
		for _, x := range e.extractors {
			tables[x.Domain()] = extractAll(x, sections)
		}
		return tables
	}

	results := make([][]Record, len(e.extractors))
	var wg sync.WaitGroup
	for i, x := range e.extractors {
		wg.Add(1)
		go func(i int, x DomainExtractor) {
			defer wg.Done()
			results[i] = extractAll(x, sections)
		}(i, x)
	}
	wg.Wait()

	for i, x := range e.extractors {
		tables[x.Domain()] = results[i]
	}
	return tables
}
