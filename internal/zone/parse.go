package zone

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ParseList parses `zoneadm list -cp` output into zones.
// Format: zoneid:zonename:state:zonepath:uuid:brand:ip-type
//
// Rows whose zoneid is "-" have no kernel id (the zone is not booted) and are
// not part of the kernel zone table, so they are skipped.
func ParseList(data []byte) ([]Zone, error) {
	var zones []Zone

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := splitFields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 fields, got %d", lineNo, len(fields))
		}
		if fields[0] == "-" {
			continue
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil || id < 0 {
			return nil, fmt.Errorf("line %d: invalid zone id %q", lineNo, fields[0])
		}
		if fields[1] == "" {
			return nil, fmt.Errorf("line %d: empty zone name", lineNo)
		}
		status, err := ParseStatus(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		z := Zone{
			ID:     id,
			Name:   fields[1],
			Status: status,
			Path:   fields[3],
		}
		if len(fields) > 4 {
			z.UUID = fields[4]
		}
		if len(fields) > 5 {
			z.Brand = fields[5]
		}
		if len(fields) > 6 {
			z.IPType = fields[6]
		}
		zones = append(zones, z)
	}
	return zones, scanner.Err()
}

// splitFields splits on ':' honoring zoneadm's "\:" and "\\" escapes.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

// ParseZonename parses `zonename` output.
func ParseZonename(data []byte) (string, error) {
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", fmt.Errorf("zonename returned no name")
	}
	if strings.ContainsAny(name, " \t\n") {
		return "", fmt.Errorf("zonename returned unexpected output %q", name)
	}
	return name, nil
}
