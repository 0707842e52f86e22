package smf

import (
	"testing"
)

func TestParseFMRI(t *testing.T) {
	tests := []struct {
		input        string
		wantScheme   string
		wantService  string
		wantInstance string
		wantString   string
		wantErr      bool
	}{
		{"svc:/milestone/multi-user:default", "svc", "milestone/multi-user", "default", "svc:/milestone/multi-user:default", false},
		{"svc:/network/rexec:default", "svc", "network/rexec", "default", "svc:/network/rexec:default", false},
		{"svc:/network/ssh", "svc", "network/ssh", "", "svc:/network/ssh", false},
		{"svc://localhost/system/cron:default", "svc", "system/cron", "default", "svc:/system/cron:default", false},
		{"lrc:/etc/rc2_d/S20sysetup", "lrc", "etc/rc2_d/S20sysetup", "", "lrc:/etc/rc2_d/S20sysetup", false},

		{"", "", "", "", "", true},
		{"multi-user", "", "", "", "", true},
		{"http://example.com", "", "", "", "", true},
		{"svc:", "", "", "", "", true},
		{"svc:/", "", "", "", "", true},
		{"svc:network/ssh", "", "", "", "", true},
		{"svc:/network/ssh:", "", "", "", "", true},
		{"svc:/network//ssh:default", "", "", "", "", true},
		{"svc:/network/ssh/:default", "", "", "", "", true},
		{"svc:/network/ssh :default", "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFMRI(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFMRI(%q) expected error, got %+v", tt.input, f)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseFMRI(%q) unexpected error: %v", tt.input, err)
				return
			}
			if f.Scheme != tt.wantScheme {
				t.Errorf("ParseFMRI(%q).Scheme = %q, want %q", tt.input, f.Scheme, tt.wantScheme)
			}
			if f.Service != tt.wantService {
				t.Errorf("ParseFMRI(%q).Service = %q, want %q", tt.input, f.Service, tt.wantService)
			}
			if f.Instance != tt.wantInstance {
				t.Errorf("ParseFMRI(%q).Instance = %q, want %q", tt.input, f.Instance, tt.wantInstance)
			}
			if f.String() != tt.wantString {
				t.Errorf("ParseFMRI(%q).String() = %q, want %q", tt.input, f.String(), tt.wantString)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	for _, s := range States {
		t.Run(string(s), func(t *testing.T) {
			got, err := ParseState(string(s) + "\n")
			if err != nil {
				t.Fatalf("ParseState(%q) unexpected error: %v", s, err)
			}
			if got != s {
				t.Errorf("ParseState(%q) = %q", s, got)
			}
		})
	}

	if got, err := ParseState("online*"); err != nil || got != StateOnline {
		t.Errorf("ParseState(online*) = %q, %v", got, err)
	}
	if _, err := ParseState("Online"); err == nil {
		t.Error("expected error for wrong case")
	}
	if _, err := ParseState(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestStateIsHealthy(t *testing.T) {
	healthy := map[State]bool{
		StateOnline:        true,
		StateLegacyRun:     true,
		StateDisabled:      true,
		StateOffline:       false,
		StateMaintenance:   false,
		StateDegraded:      false,
		StateUninitialized: false,
	}
	for s, want := range healthy {
		if got := s.IsHealthy(); got != want {
			t.Errorf("%s.IsHealthy() = %v, want %v", s, got, want)
		}
	}
}
