package zone

import (
	"errors"
	"fmt"

	"github.com/dnlvgl/zutil/internal/command"
)

// Error kinds shared by the registry, the attribute store and the service
// querier. Callers match them with errors.Is.
var (
	ErrZoneNotFound        = errors.New("zone not found")
	ErrRegistryUnavailable = errors.New("zone registry unavailable")
	ErrConfigParse         = errors.New("zone configuration parse error")
	ErrAttributeNotFound   = errors.New("zone attribute not found")
	ErrServiceQuery        = errors.New("service state query failed")
	ErrServiceNotFound     = errors.New("service not found")
)

// ValidationError reports a malformed argument. It is returned synchronously
// and never through a result channel.
type ValidationError struct {
	Arg    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// RequireName returns a ValidationError if value is empty.
func RequireName(arg, value string) error {
	if value == "" {
		return &ValidationError{Arg: arg, Reason: "must be a non-empty string"}
	}
	return nil
}

func notFoundByID(id int) error {
	return fmt.Errorf("zone id %d: %w", id, ErrZoneNotFound)
}

func notFoundByName(name string) error {
	return fmt.Errorf("zone %q: %w", name, ErrZoneNotFound)
}

// KindOf names the error kind of err for logs, metrics and exit codes.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsValidation(err):
		return "validation"
	case errors.Is(err, command.ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrZoneNotFound):
		return "zone_not_found"
	case errors.Is(err, ErrRegistryUnavailable):
		return "registry_unavailable"
	case errors.Is(err, ErrConfigParse):
		return "config_parse"
	case errors.Is(err, ErrAttributeNotFound):
		return "attribute_not_found"
	case errors.Is(err, ErrServiceNotFound):
		return "service_not_found"
	case errors.Is(err, ErrServiceQuery):
		return "service_query"
	default:
		return "error"
	}
}
