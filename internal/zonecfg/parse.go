package zonecfg

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dnlvgl/zutil/internal/zone"
)

const recordHeader = "attr:"

// ParseError reports output that does not follow the attr record grammar.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("zonecfg output: %s", e.Reason)
	}
	return fmt.Sprintf("zonecfg output line %d: %s", e.Line, e.Reason)
}

// Is makes ParseError match zone.ErrConfigParse.
func (e *ParseError) Is(target error) bool {
	return target == zone.ErrConfigParse
}

// record is one attr resource being assembled.
type record struct {
	line   int
	fields map[string]string
}

// Parse parses `zonecfg -z <zone> info attr` output:
//
//	attr:
//		name: property-version
//		type: string
//		value: 1
//
// Records may appear in any order. Empty output yields no attributes and no
// error. Malformed records are rejected, never skipped.
func Parse(data []byte) ([]Attribute, error) {
	var records []*record
	var cur *record

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}

		if raw == recordHeader {
			cur = &record{line: lineNo, fields: make(map[string]string, 3)}
			records = append(records, cur)
			continue
		}

		// Properties are indented under their header.
		if raw[0] != '\t' && raw[0] != ' ' {
			return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("unexpected line %q", raw)}
		}
		if cur == nil {
			return nil, &ParseError{Line: lineNo, Reason: "property outside of an attr record"}
		}

		key, value, ok := strings.Cut(strings.TrimSpace(raw), ":")
		if !ok {
			return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("missing ':' in %q", strings.TrimSpace(raw))}
		}
		key = strings.TrimSpace(key)
		switch key {
		case "name", "type", "value":
		default:
			return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("unknown property %q", key)}
		}
		if _, dup := cur.fields[key]; dup {
			return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("repeated property %q", key)}
		}
		cur.fields[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}

	attrs := make([]Attribute, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		attr, err := rec.attribute()
		if err != nil {
			return nil, err
		}
		if seen[attr.Name] {
			return nil, &ParseError{Line: rec.line, Reason: fmt.Sprintf("duplicate attribute %q", attr.Name)}
		}
		seen[attr.Name] = true
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (r *record) attribute() (Attribute, error) {
	for _, key := range []string{"name", "type", "value"} {
		if _, ok := r.fields[key]; !ok {
			return Attribute{}, &ParseError{Line: r.line, Reason: fmt.Sprintf("attr record missing %q", key)}
		}
	}

	name := r.fields["name"]
	if name == "" {
		return Attribute{}, &ParseError{Line: r.line, Reason: "attr record has an empty name"}
	}
	token := r.fields["type"]
	typ, err := parseType(token)
	if err != nil {
		return Attribute{}, &ParseError{Line: r.line, Reason: err.Error()}
	}
	value := r.fields["value"]
	if err := checkValue(token, value); err != nil {
		return Attribute{}, &ParseError{Line: r.line, Reason: fmt.Sprintf("attribute %q: %v", name, err)}
	}
	return Attribute{Name: name, Type: typ, Value: value}, nil
}

// checkValue verifies value is well formed for the declared type token.
func checkValue(token, value string) error {
	switch token {
	case "int", "integer":
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("value %q is not an integer", value)
		}
	case "uint":
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return fmt.Errorf("value %q is not an unsigned integer", value)
		}
	case "boolean":
		if value != "true" && value != "false" {
			return fmt.Errorf("value %q is not a boolean", value)
		}
	}
	return nil
}

// unquote strips the double quotes zonecfg puts around values with spaces.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
