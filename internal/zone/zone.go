package zone

import "fmt"

// GlobalName and GlobalID identify the always-present global zone.
const (
	GlobalName = "global"
	GlobalID   = 0
)

// Status is the lifecycle state reported by zoneadm.
type Status string

const (
	StatusConfigured   Status = "configured"
	StatusIncomplete   Status = "incomplete"
	StatusInstalled    Status = "installed"
	StatusReady        Status = "ready"
	StatusRunning      Status = "running"
	StatusShuttingDown Status = "shutting_down"
	StatusDown         Status = "down"
	StatusMounted      Status = "mounted"
)

var statuses = map[string]Status{
	"configured":    StatusConfigured,
	"incomplete":    StatusIncomplete,
	"installed":     StatusInstalled,
	"ready":         StatusReady,
	"running":       StatusRunning,
	"shutting_down": StatusShuttingDown,
	"down":          StatusDown,
	"mounted":       StatusMounted,
}

// ParseStatus maps a zoneadm state token onto Status.
func ParseStatus(s string) (Status, error) {
	st, ok := statuses[s]
	if !ok {
		return "", fmt.Errorf("unknown zone state %q", s)
	}
	return st, nil
}

// Zone is one entry of the kernel zone table.
type Zone struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Status Status `json:"status" yaml:"status"`
	Path   string `json:"path" yaml:"path"`
	UUID   string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Brand  string `json:"brand,omitempty" yaml:"brand,omitempty"`
	IPType string `json:"ip_type,omitempty" yaml:"ip_type,omitempty"`
}

// IsGlobal returns true for the global zone.
func (z Zone) IsGlobal() bool {
	return z.ID == GlobalID && z.Name == GlobalName
}

// ShortName returns the zone name, shortening UUID-style names to 8 characters.
func ShortName(name string) string {
	if len(name) == 36 && name[8] == '-' && name[13] == '-' {
		return name[:8]
	}
	return name
}

// String returns a human-readable description of the zone.
func (z Zone) String() string {
	return fmt.Sprintf("zone %s (id %d, %s)", z.Name, z.ID, z.Status)
}
