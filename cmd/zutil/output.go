package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/zone"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return &zone.ValidationError{Arg: "output", Reason: fmt.Sprintf("unknown format %q, want table, json or yaml", format)}
}

// render writes v in the requested format. table is only called for the
// table format.
func render(w io.Writer, format string, v any, table func() string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, table())
		return err
	}
}

type serviceRow struct {
	FMRI  string `json:"fmri" yaml:"fmri"`
	State string `json:"state,omitempty" yaml:"state,omitempty"`
	Kind  string `json:"kind" yaml:"kind"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func serviceRows(states []query.ServiceStatus) []serviceRow {
	rows := make([]serviceRow, len(states))
	for i, st := range states {
		rows[i] = serviceRow{FMRI: st.FMRI, State: string(st.State), Kind: zone.KindOf(st.Err)}
		if st.Err != nil {
			rows[i].Error = st.Err.Error()
		}
	}
	return rows
}
