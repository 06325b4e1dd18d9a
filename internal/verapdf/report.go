// Package verapdf parses the XML validation report emitted by the veraPDF
// compliance checker into a verdict.
package verapdf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"

	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
)

// ErrMalformedReport marks a report missing the expected node path. This is
// distinct from a well-formed report whose verdict is "not compliant".
var ErrMalformedReport = errors.New("malformed compliance report")

// Verdict is the outcome of one verification run. Read-only after parsing.
type Verdict struct {
	Compliant   bool
	ProfileName string
	Statement   string
	Passed      int
	Failed      int
}

// ParseReport locates the validationReport node anywhere in the document,
// reads its verdict attributes, and reads the check counters from the nested
// details node. Unexpected extra nodes are ignored; no schema validation.
func ParseReport(report []byte) (Verdict, error) {
	dec := xml.NewDecoder(bytes.NewReader(report))

	var v Verdict
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return Verdict{}, parseError(ErrMalformedReport, "validationReport node not found")
		}
		if err != nil {
			return Verdict{}, parseError(err, "decode report")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "validationReport" {
			continue
		}

		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "isCompliant":
				compliant, err := strconv.ParseBool(attr.Value)
				if err != nil {
					return Verdict{}, parseError(ErrMalformedReport, "isCompliant attribute is not a boolean")
				}
				v.Compliant = compliant
			case "statement":
				v.Statement = attr.Value
			case "profileName":
				v.ProfileName = attr.Value
			}
		}

		if err := readDetails(dec, &v); err != nil {
			return Verdict{}, err
		}
		return v, nil
	}
}

// readDetails scans the children of validationReport for the details node and
// extracts the check counters. Reaching the closing tag without finding it is
// a malformed report.
func readDetails(dec *xml.Decoder, v *Verdict) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return parseError(ErrMalformedReport, "validationReport node truncated")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local != "details" {
				continue
			}
			for _, attr := range t.Attr {
				switch attr.Name.Local {
				case "passedChecks":
					n, err := strconv.Atoi(attr.Value)
					if err != nil {
						return parseError(ErrMalformedReport, "passedChecks attribute is not an integer")
					}
					v.Passed = n
				case "failedChecks":
					n, err := strconv.Atoi(attr.Value)
					if err != nil {
						return parseError(ErrMalformedReport, "failedChecks attribute is not an integer")
					}
					v.Failed = n
				}
			}
			return nil
		case xml.EndElement:
			depth--
		}
	}
	return parseError(ErrMalformedReport, "details node not found")
}

func parseError(cause error, message string) error {
	return pipeerrors.Wrap(cause, pipeerrors.CategoryParse, pipeerrors.SeverityError, message)
}
