package smf

import (
	"fmt"
	"strings"
)

const (
	SchemeService = "svc"
	SchemeLegacy  = "lrc"
)

// FMRI identifies a service instance, e.g. svc:/milestone/multi-user:default.
type FMRI struct {
	Scheme   string
	Service  string
	Instance string
}

// ParseFMRI parses a service identifier. Supported formats:
//   - "svc:/network/ssh:default"           → service instance
//   - "svc:/network/ssh"                   → service, no instance
//   - "svc://localhost/network/ssh:default" → explicit local scope
//   - "lrc:/etc/rc2_d/S20sysetup"          → legacy run script
func ParseFMRI(s string) (FMRI, error) {
	if strings.ContainsAny(s, " \t\n") {
		return FMRI{}, fmt.Errorf("fmri %q contains whitespace", s)
	}
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok || (scheme != SchemeService && scheme != SchemeLegacy) {
		return FMRI{}, fmt.Errorf("fmri %q must start with svc:/ or lrc:/", s)
	}
	rest = strings.TrimPrefix(rest, "//localhost")
	if !strings.HasPrefix(rest, "/") {
		return FMRI{}, fmt.Errorf("fmri %q has no service path", s)
	}
	rest = rest[1:]

	f := FMRI{Scheme: scheme, Service: rest}
	if scheme == SchemeService {
		if idx := strings.LastIndex(rest, ":"); idx >= 0 {
			f.Service = rest[:idx]
			f.Instance = rest[idx+1:]
			if f.Instance == "" {
				return FMRI{}, fmt.Errorf("fmri %q has an empty instance", s)
			}
		}
	}
	if f.Service == "" || strings.HasSuffix(f.Service, "/") || strings.Contains(f.Service, "//") {
		return FMRI{}, fmt.Errorf("fmri %q has an invalid service path", s)
	}
	return f, nil
}

// IsLegacy returns true for legacy run script identifiers.
func (f FMRI) IsLegacy() bool {
	return f.Scheme == SchemeLegacy
}

// String returns the canonical form.
func (f FMRI) String() string {
	s := f.Scheme + ":/" + f.Service
	if f.Instance != "" {
		s += ":" + f.Instance
	}
	return s
}
