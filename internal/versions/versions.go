// Package versions selects, for an extension directory, the version
// subdirectory matching a requested Galaxy version.
//
// Versions are plain floating-point numbers taken from directory names
// ("24.1", "22.05", "24"). There is no semantic versioning: "24.10" and
// "24.1" are the same version.
package versions

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Latest is the request token that selects the highest available version.
const Latest = "latest"

// Candidate is one version found under a base path.
type Candidate struct {
	Value float64
	// Name is the directory name the value was parsed from.
	Name string
}

// String returns the directory name, or the shortest float form when the
// candidate was not read from disk.
func (c Candidate) String() string {
	if c.Name != "" {
		return c.Name
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// ParseCandidate parses a directory name as a version. Names that are not
// finite floats ("README.md", "test", "v24.1", "NaN", "inf") are rejected.
func ParseCandidate(name string) (Candidate, bool) {
	v, ok := parseFloat(name)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Value: v, Name: name}, true
}

// SortDescending orders candidates highest first. Equal values keep a stable
// order by directory name so "24.1" precedes "24.10".
func SortDescending(cs []Candidate) {
	slices.SortStableFunc(cs, func(a, b Candidate) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// Request is a parsed version specifier: either Latest or a number.
type Request struct {
	Latest bool
	Value  float64
	// Raw is the value the request was parsed from, kept for messages.
	Raw any
}

// String returns the request as the caller wrote it when it came from a
// string, otherwise the shortest float form.
func (r Request) String() string {
	if r.Latest {
		return Latest
	}
	if s, ok := r.Raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// ParseRequest converts a requested version into a Request. It accepts the
// literal "latest", numeric strings ("24.1", " 22.05 ") and any Go integer
// or float value. Anything else fails with ErrInvalidRequestedVersion.
func ParseRequest(requested any) (Request, error) {
	switch v := requested.(type) {
	case Request:
		return v, nil
	case string:
		if v == Latest {
			return Request{Latest: true, Raw: v}, nil
		}
		f, ok := parseFloat(v)
		if !ok {
			return Request{}, invalidRequestError(v)
		}
		return Request{Value: f, Raw: v}, nil
	case float64:
		return numericRequest(v, requested)
	case float32:
		return numericRequest(float64(v), requested)
	case int:
		return numericRequest(float64(v), requested)
	case int8:
		return numericRequest(float64(v), requested)
	case int16:
		return numericRequest(float64(v), requested)
	case int32:
		return numericRequest(float64(v), requested)
	case int64:
		return numericRequest(float64(v), requested)
	case uint:
		return numericRequest(float64(v), requested)
	case uint8:
		return numericRequest(float64(v), requested)
	case uint16:
		return numericRequest(float64(v), requested)
	case uint32:
		return numericRequest(float64(v), requested)
	case uint64:
		return numericRequest(float64(v), requested)
	case fmt.Stringer:
		return ParseRequest(v.String())
	default:
		return Request{}, invalidRequestError(requested)
	}
}

func numericRequest(f float64, raw any) (Request, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Request{}, invalidRequestError(raw)
	}
	return Request{Value: f, Raw: raw}, nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// pick applies the selection rule to a non-empty, descending slice: the
// first candidate not above the request, else the oldest. fallback reports
// the second case.
func pick(available []Candidate, req Request) (selected Candidate, fallback bool) {
	if req.Latest {
		return available[0], false
	}
	for _, c := range available {
		if c.Value <= req.Value {
			return c, false
		}
	}
	return available[len(available)-1], true
}
