// Package zonecfg reads persisted zone configuration attributes.
package zonecfg

import "fmt"

// Type is the declared type of an attribute value.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// parseType maps a zonecfg type token onto Type.
func parseType(token string) (Type, error) {
	switch token {
	case "string":
		return TypeString, nil
	case "int", "uint", "integer":
		return TypeInteger, nil
	case "boolean":
		return TypeBoolean, nil
	default:
		return "", fmt.Errorf("unknown attribute type %q", token)
	}
}

// Attribute is one `attr` resource from a zone's configuration.
type Attribute struct {
	Name  string `json:"name" yaml:"name"`
	Type  Type   `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

func (a Attribute) String() string {
	return fmt.Sprintf("%s (%s) = %s", a.Name, a.Type, a.Value)
}
