package domain

import (
	"context"
	"time"
)

// RawAccidentRecord represents the flat JSON structure produced by the
// collector from PRF open-data CSVs. Every field arrives as a string; numeric
// columns use Brazilian formatting (decimal comma, dot thousands separator).
type RawAccidentRecord struct {
	ID        string `json:"id"`
	Data      string `json:"data_inversa"` // occurrence date, e.g. "2023-07-14"
	UF        string `json:"uf"`
	BR        string `json:"br"` // federal highway number, e.g. "101"
	Km        string `json:"km"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Feridos   string `json:"feridos"`
	Mortos    string `json:"mortos"`
	Peso      string `json:"peso"` // optional explicit event weight
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// UF is a Brazilian federative unit (state) code.
type UF string

// The four states covered by the radar program.
const (
	UFSP UF = "SP"
	UFMG UF = "MG"
	UFES UF = "ES"
	UFRJ UF = "RJ"
)

// SupportedUFs lists the covered states in stable order.
func SupportedUFs() []UF {
	return []UF{UFSP, UFMG, UFES, UFRJ}
}

// ParseUF normalizes a state code and reports whether it is covered.
func ParseUF(s string) (UF, bool) {
	switch UF(normalizeCode(s)) {
	case UFSP:
		return UFSP, true
	case UFMG:
		return UFMG, true
	case UFES:
		return UFES, true
	case UFRJ:
		return UFRJ, true
	default:
		return "", false
	}
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AccidentEvent is the validated, canonical form of a raw record. Immutable
// once produced by the normalizer.
type AccidentEvent struct {
	ID       string    `json:"id"`
	Highway  string    `json:"highway"` // canonical form, e.g. "BR-101"
	UF       UF        `json:"uf"`
	Km       float64   `json:"km"`
	Occurred time.Time `json:"occurred,omitempty"`
	Weight   float64   `json:"weight"`
	Injured  int       `json:"injured"`
	Killed   int       `json:"killed"`
	Geo      *Geo      `json:"geo,omitempty"`

	RawPayload []byte `json:"-"`
}
