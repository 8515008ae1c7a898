package triplestore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/c360/semgraph/errors"
)

// Format identifies a serialization format for Export and Import.
type Format string

const (
	// FormatNTriples is a line-oriented textual graph format: one
	// "<subject> <predicate> object ." statement per line, literals quoted
	// with an optional ^^<datatype> suffix.
	FormatNTriples Format = "ntriples"

	// FormatJSON is a JSON array of triple objects.
	FormatJSON Format = "json"
)

// Export serializes the full triple set. N-Triples output is sorted so that
// equal stores export byte-identical documents.
func (s *Store) Export(format Format) ([]byte, error) {
	switch format {
	case FormatNTriples:
		return s.exportNTriples()
	case FormatJSON:
		return s.exportJSON()
	default:
		return nil, errors.WrapInvalid(errors.ErrUnsupportedCodec, "TripleStore", "Export",
			"format "+string(format))
	}
}

// Import merges serialized triples into the store. Import is additive: it
// never clears existing triples, and duplicates collapse under the store's
// set semantics. Callers wanting replacement semantics call Clear first.
func (s *Store) Import(data []byte, format Format) error {
	switch format {
	case FormatNTriples:
		return s.importNTriples(data)
	case FormatJSON:
		return s.importJSON(data)
	default:
		return errors.WrapInvalid(errors.ErrUnsupportedCodec, "TripleStore", "Import",
			"format "+string(format))
	}
}

func (s *Store) exportNTriples() ([]byte, error) {
	lines := make([]string, 0, len(s.triples))
	for _, t := range s.triples {
		lines = append(lines, formatNTriple(t))
	}
	sort.Strings(lines)

	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (s *Store) exportJSON() ([]byte, error) {
	triples := s.Triples()
	sort.Slice(triples, func(i, j int) bool {
		return triples[i].key() < triples[j].key()
	})

	data, err := json.MarshalIndent(triples, "", "  ")
	if err != nil {
		return nil, errors.WrapFatal(err, "TripleStore", "Export", "marshal triples")
	}
	return data, nil
}

func (s *Store) importNTriples(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := parseNTriple(line)
		if err != nil {
			return errors.WrapInvalid(err, "TripleStore", "Import",
				fmt.Sprintf("line %d", lineNo))
		}
		if err := s.Add(t.Subject, t.Predicate, t.Object); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.WrapInvalid(err, "TripleStore", "Import", "scan input")
	}
	return nil
}

func (s *Store) importJSON(data []byte) error {
	var triples []Triple
	if err := json.Unmarshal(data, &triples); err != nil {
		return errors.WrapInvalid(err, "TripleStore", "Import", "unmarshal triples")
	}
	for _, t := range triples {
		if err := s.Add(t.Subject, t.Predicate, t.Object); err != nil {
			return err
		}
	}
	return nil
}

func formatNTriple(t Triple) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(t.Subject)
	b.WriteString("> <")
	b.WriteString(t.Predicate)
	b.WriteString("> ")

	if t.Object.Literal {
		b.WriteString(`"`)
		b.WriteString(escapeLiteral(t.Object.Value))
		b.WriteString(`"`)
		if t.Object.Datatype != "" {
			b.WriteString("^^<")
			b.WriteString(t.Object.Datatype)
			b.WriteString(">")
		}
	} else {
		b.WriteString("<")
		b.WriteString(t.Object.Value)
		b.WriteString(">")
	}

	b.WriteString(" .")
	return b.String()
}

func parseNTriple(line string) (Triple, error) {
	rest := line

	subject, rest, err := parseIRIRef(rest)
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}
	predicate, rest, err := parseIRIRef(strings.TrimLeft(rest, " \t"))
	if err != nil {
		return Triple{}, fmt.Errorf("predicate: %w", err)
	}

	rest = strings.TrimLeft(rest, " \t")
	var object Term
	switch {
	case strings.HasPrefix(rest, "<"):
		value, tail, err := parseIRIRef(rest)
		if err != nil {
			return Triple{}, fmt.Errorf("object: %w", err)
		}
		object = IRI(value)
		rest = tail
	case strings.HasPrefix(rest, `"`):
		value, tail, err := parseQuoted(rest)
		if err != nil {
			return Triple{}, fmt.Errorf("object: %w", err)
		}
		object = Literal(value)
		if strings.HasPrefix(tail, "^^") {
			datatype, dtTail, err := parseIRIRef(tail[2:])
			if err != nil {
				return Triple{}, fmt.Errorf("object datatype: %w", err)
			}
			object.Datatype = datatype
			tail = dtTail
		}
		rest = tail
	default:
		return Triple{}, fmt.Errorf("object must be an IRI or a quoted literal: %w", errors.ErrParsingFailed)
	}

	rest = strings.TrimSpace(rest)
	if rest != "." {
		return Triple{}, fmt.Errorf("statement must end with '.': %w", errors.ErrParsingFailed)
	}

	return Triple{Subject: subject, Predicate: predicate, Object: object}, nil
}

func parseIRIRef(s string) (value, rest string, err error) {
	if !strings.HasPrefix(s, "<") {
		return "", "", fmt.Errorf("expected '<': %w", errors.ErrParsingFailed)
	}
	end := strings.Index(s, ">")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated IRI reference: %w", errors.ErrParsingFailed)
	}
	return s[1:end], s[end+1:], nil
}

func parseQuoted(s string) (value, rest string, err error) {
	// s starts with the opening quote
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return "", "", fmt.Errorf("dangling escape: %w", errors.ErrParsingFailed)
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				return "", "", fmt.Errorf("unknown escape \\%c: %w", s[i], errors.ErrParsingFailed)
			}
		case '"':
			return b.String(), s[i+1:], nil
		default:
			b.WriteByte(c)
		}
		i++
	}
	return "", "", fmt.Errorf("unterminated literal: %w", errors.ErrParsingFailed)
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
