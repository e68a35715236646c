package patient

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Patient is a single record. CI (national identity number) is the lookup key.
type Patient struct {
	Name       string `db:"name" json:"name"`
	LastName   string `db:"last_name" json:"lastName"`
	CI         string `db:"ci" json:"ci"`
	BloodGroup string `db:"blood_group" json:"bloodGroup"`
	Code       string `db:"code" json:"code,omitempty"`
}

// UpdateRequest carries the fields PUT /patients/:ci may change.
type UpdateRequest struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
}

const (
	baseFieldCount = 4
	fullFieldCount = 5
)

// MarshalLine encodes p as a single comma-joined line without the trailing
// newline. Values holding a comma, quote or line break are CSV-quoted; plain
// values are written as-is, e.g. "Ana,Diaz,123,O+".
func (p *Patient) MarshalLine() (string, error) {
	fields := []string{p.Name, p.LastName, p.CI, p.BloodGroup}
	if p.Code != "" {
		fields = append(fields, p.Code)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", fmt.Errorf("encode patient %s: %w", p.CI, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode patient %s: %w", p.CI, err)
	}
	return strings.TrimRight(buf.String(), "\r\n"), nil
}

// ParseLine decodes one stored line.
func ParseLine(line string) (*Patient, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return fromFields(fields)
}

func fromFields(fields []string) (*Patient, error) {
	if len(fields) < baseFieldCount {
		return nil, fmt.Errorf("%w: expected at least %d fields, got %d", ErrCorruptRecord, baseFieldCount, len(fields))
	}
	p := &Patient{
		Name:       fields[0],
		LastName:   fields[1],
		CI:         fields[2],
		BloodGroup: fields[3],
	}
	if len(fields) >= fullFieldCount {
		p.Code = fields[4]
	}
	return p, nil
}

// Validate reports every required field that is empty or whitespace-only.
func (p *Patient) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		missing = append(missing, "lastName is required")
	}
	if strings.TrimSpace(p.CI) == "" {
		missing = append(missing, "ci is required")
	}
	if strings.TrimSpace(p.BloodGroup) == "" {
		missing = append(missing, "bloodGroup is required")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
