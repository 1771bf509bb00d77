package timescale

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseLSK reads a NAIF leapseconds text kernel. Only \begindata blocks are
// interpreted; DELTET/DELTA_AT is required, the TDB model variables default
// to DefaultModel when absent. The resulting table is open-ended.
func ParseLSK(r io.Reader) (*LeapSeconds, error) {
	vars, err := readTextKernel(r)
	if err != nil {
		return nil, err
	}

	m := DefaultModel
	scalar := func(name string, dst *float64) error {
		v, ok := vars[name]
		if !ok {
			return nil
		}
		if len(v) != 1 {
			return fmt.Errorf("%w: %s has %d values, want 1", ErrParse, name, len(v))
		}
		f, err := parseNumber(v[0])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = f
		return nil
	}
	for name, dst := range map[string]*float64{
		"DELTET/DELTA_T_A": &m.DeltaTA,
		"DELTET/K":         &m.K,
		"DELTET/EB":        &m.EB,
	} {
		if err := scalar(name, dst); err != nil {
			return nil, err
		}
	}
	if v, ok := vars["DELTET/M"]; ok {
		if len(v) != 2 {
			return nil, fmt.Errorf("%w: DELTET/M has %d values, want 2", ErrParse, len(v))
		}
		if m.M0, err = parseNumber(v[0]); err != nil {
			return nil, err
		}
		if m.M1, err = parseNumber(v[1]); err != nil {
			return nil, err
		}
	}

	raw, ok := vars["DELTET/DELTA_AT"]
	if !ok {
		return nil, fmt.Errorf("%w: DELTET/DELTA_AT missing", ErrParse)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: DELTET/DELTA_AT has odd length %d", ErrParse, len(raw))
	}
	var entries []LeapSecond
	for i := 0; i < len(raw); i += 2 {
		dat, err := parseNumber(raw[i])
		if err != nil {
			return nil, err
		}
		y, mo, d, err := parseAtDate(raw[i+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, LeapSecond{Year: y, Month: mo, Day: d, Value: int(dat)})
	}
	return NewLeapSeconds(entries, time.Time{}, m)
}

// readTextKernel collects NAME = value assignments from \begindata blocks.
// Values are returned as raw tokens; "+=" appends.
func readTextKernel(r io.Reader) (map[string][]string, error) {
	vars := make(map[string][]string)
	sc := bufio.NewScanner(r)
	inData := false
	var name string
	var appendTo, open bool

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case `\begindata`:
			inData = true
			continue
		case `\begintext`:
			inData = false
			continue
		}
		if !inData || line == "" {
			continue
		}

		if !open {
			eq := strings.Index(line, "=")
			if eq < 0 {
				return nil, fmt.Errorf("%w: expected assignment, got %q", ErrParse, line)
			}
			lhs := strings.TrimSpace(line[:eq])
			appendTo = strings.HasSuffix(lhs, "+")
			name = strings.TrimSpace(strings.TrimSuffix(lhs, "+"))
			line = strings.TrimSpace(line[eq+1:])
			if !appendTo {
				vars[name] = nil
			}
			if strings.HasPrefix(line, "(") {
				open = true
				line = line[1:]
			}
		}
		if open {
			if i := strings.Index(line, ")"); i >= 0 {
				line = line[:i]
				open = false
			}
		}
		vars[name] = append(vars[name], tokens(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read text kernel: %w", err)
	}
	if open {
		return nil, fmt.Errorf("%w: unterminated value list for %s", ErrParse, name)
	}
	return vars, nil
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// parseNumber accepts Fortran-style D exponents.
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: number %q", ErrParse, s)
	}
	return f, nil
}

var monthAbbrev = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// parseAtDate parses @1972-JAN-1 style dates.
func parseAtDate(s string) (int, time.Month, int, error) {
	parts := strings.Split(strings.TrimPrefix(s, "@"), "-")
	if !strings.HasPrefix(s, "@") || len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: date %q", ErrParse, s)
	}
	y, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[2])
	mo, ok := monthAbbrev[strings.ToUpper(parts[1])]
	if err1 != nil || err2 != nil || !ok {
		return 0, 0, 0, fmt.Errorf("%w: date %q", ErrParse, s)
	}
	return y, mo, d, nil
}
