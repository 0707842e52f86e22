package zone

import (
	"fmt"
	"strconv"
)

// Ref is a zone reference parsed from user input: either an id or a name.
type Ref struct {
	ID   int
	Name string
}

// IsID returns true if the reference names a zone by id.
func (r Ref) IsID() bool {
	return r.Name == ""
}

func (r Ref) String() string {
	if r.IsID() {
		return strconv.Itoa(r.ID)
	}
	return r.Name
}

// ParseRef parses a zone argument. Supported formats:
//   - "0", "12"   → zone id (ASCII digits only)
//   - "global"    → zone name
//   - "#12"       → zone id, explicit form
//   - "@12"       → zone name, explicit form for all-digit names
func ParseRef(arg string) (Ref, error) {
	if arg == "" {
		return Ref{}, &ValidationError{Arg: "zone", Reason: "must be a non-empty string"}
	}
	switch arg[0] {
	case '#':
		return parseRefID(arg[1:])
	case '@':
		if len(arg) == 1 {
			return Ref{}, &ValidationError{Arg: "zone", Reason: `"@" needs a zone name`}
		}
		return Ref{Name: arg[1:]}, nil
	}
	if isDigits(arg) {
		return parseRefID(arg)
	}
	return Ref{Name: arg}, nil
}

func parseRefID(s string) (Ref, error) {
	if !isDigits(s) {
		return Ref{}, &ValidationError{Arg: "zone", Reason: fmt.Sprintf("%q is not a valid zone id", s)}
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return Ref{}, &ValidationError{Arg: "zone", Reason: fmt.Sprintf("zone id %s is out of range", s)}
	}
	return Ref{ID: id}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
