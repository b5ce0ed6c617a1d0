package ccda

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	errNoElement       = errors.New("no element found")
	errJunkAfterRoot   = errors.New("junk after document element")
	errTextOutsideRoot = errors.New("text outside the document element")
)

// Validation is the outcome of Validate.
type Validation struct {
	OK     bool
	Reason string
}

// Validate checks that text is well-formed XML whose root element has the
// local name ClinicalDocument. Syntax failures are reported before the root
// is inspected.
func Validate(text string) Validation {
	root, err := scanRoot(text)
	if err != nil {
		return Validation{Reason: fmt.Sprintf(reasonParseFailedFmt, err)}
	}
	if root.Local != "ClinicalDocument" {
		return Validation{Reason: ReasonRootMismatch}
	}
	return Validation{OK: true, Reason: ReasonOK}
}

// scanRoot runs a strict token pass over the whole document and returns the
// name of its single root element.
func scanRoot(text string) (xml.Name, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  xml.Name
		seen  bool
		depth int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return xml.Name{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if seen {
					return xml.Name{}, syntaxErr(dec, errJunkAfterRoot)
				}
				root, seen = t.Name, true
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return xml.Name{}, syntaxErr(dec, errTextOutsideRoot)
			}
		}
	}

	if !seen {
		return xml.Name{}, syntaxErr(dec, errNoElement)
	}
	return root, nil
}

func syntaxErr(dec *xml.Decoder, err error) error {
	line, col := dec.InputPos()
	return fmt.Errorf("%w: line %d, column %d", err, line, col)
}
