package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rejection reasons attached to malformed records. They label metrics and the
// run report, so the set is fixed.
const (
	ReasonEmptyHighway  = "empty_highway"
	ReasonUnsupportedUF = "unsupported_uf"
	ReasonInvalidKm     = "invalid_km"
	ReasonInvalidWeight = "invalid_weight"
	ReasonBadPayload    = "bad_payload"
	ReasonOutsideExtent = "outside_extent"
)

// MalformedRecordError marks a record that failed validation. Rejections are
// counted per reason and never abort the run.
type MalformedRecordError struct {
	Reason string
	Detail string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record (%s): %s", e.Reason, e.Detail)
}

// RejectReason extracts the rejection reason from an error, or "" when the
// error is not a record rejection.
func RejectReason(err error) string {
	var m *MalformedRecordError
	if errors.As(err, &m) {
		return m.Reason
	}
	return ""
}

func reject(reason, format string, args ...any) error {
	return &MalformedRecordError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ParseRawEvent deserializes a RawEvent's value and normalizes it into an
// AccidentEvent.
func ParseRawEvent(raw RawEvent) (AccidentEvent, error) {
	var rec RawAccidentRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return AccidentEvent{}, reject(ReasonBadPayload, "parse raw event: %v", err)
	}
	event, err := NormalizeRecord(rec)
	if err != nil {
		return AccidentEvent{}, err
	}
	event.RawPayload = raw.Value
	return event, nil
}

// NormalizeRecord validates and canonicalizes a raw record. A failure is a
// *MalformedRecordError carrying the rejection reason.
func NormalizeRecord(rec RawAccidentRecord) (AccidentEvent, error) {
	highway := CanonicalHighway(rec.BR)
	if highway == "" {
		return AccidentEvent{}, reject(ReasonEmptyHighway, "br field %q", rec.BR)
	}

	uf, ok := ParseUF(rec.UF)
	if !ok {
		return AccidentEvent{}, reject(ReasonUnsupportedUF, "uf field %q", rec.UF)
	}

	km, err := ParseDecimal(rec.Km)
	if err != nil || km < 0 {
		return AccidentEvent{}, reject(ReasonInvalidKm, "km field %q", rec.Km)
	}

	injured := parseIntOrZero(rec.Feridos)
	killed := parseIntOrZero(rec.Mortos)

	weight := 1.0 + float64(injured) + float64(killed)
	if strings.TrimSpace(rec.Peso) != "" {
		weight, err = ParseDecimal(rec.Peso)
		if err != nil || weight <= 0 {
			return AccidentEvent{}, reject(ReasonInvalidWeight, "peso field %q", rec.Peso)
		}
	}

	return AccidentEvent{
		ID:       generateID(rec.ID, highway, string(uf), rec.Km, rec.Data),
		Highway:  highway,
		UF:       uf,
		Km:       km,
		Occurred: parseDate(rec.Data),
		Weight:   weight,
		Injured:  injured,
		Killed:   killed,
		Geo:      parseGeo(rec.Latitude, rec.Longitude),
	}, nil
}

// CanonicalHighway normalizes a federal highway identifier to "BR-NNN" form.
// Accepts "101", "101.0", "BR101", "br-101". Returns "" for empty or
// unparseable input.
func CanonicalHighway(s string) string {
	s = normalizeCode(s)
	if rest, ok := strings.CutPrefix(s, "BR"); ok {
		s = strings.TrimPrefix(rest, "-")
	}
	if s == "" {
		return ""
	}
	// Some exports carry the BR number as a float column ("101.0").
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || n != float64(int(n)) || n <= 0 {
		return ""
	}
	return fmt.Sprintf("BR-%03d", int(n))
}

// ParseDecimal parses a numeric string in Brazilian or plain formatting:
// comma decimal separators and dot thousands separators are both accepted
// ("1.234,56" -> 1234.56).
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	if strings.Contains(s, ",") {
		// Comma is the decimal separator, so any dots are thousands marks:
		// "1.234,56" -> "1234.56".
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func parseIntOrZero(s string) int {
	v, err := ParseDecimal(s)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}

func parseGeo(lat, lon string) *Geo {
	la, errLat := ParseDecimal(lat)
	lo, errLon := ParseDecimal(lon)
	if errLat != nil || errLon != nil {
		return nil
	}
	return &Geo{Lat: la, Lon: lo}
}

// parseDate accepts the PRF date column ("2006-01-02" or "02/01/2006").
// Returns zero time when absent or unparseable; the occurrence date is
// optional metadata.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// generateID produces a deterministic ID from the record's key fields.
// Deterministic IDs make reprocessing idempotent: replaying the same raw
// record dedupes against the first pass instead of double-counting it.
func generateID(recordID, highway, uf, km, date string) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s", recordID, highway, uf, km, date)
	hash := sha256.Sum256([]byte(input))
	return "acc-" + hex.EncodeToString(hash[:8])
}
