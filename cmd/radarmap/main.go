// Command radarmap runs the segmentation-and-scoring pipeline offline over a
// PRF accident CSV and renders the result as a self-contained interactive
// HTML map, optionally dumping the catalogue JSON alongside it.
//
// Usage:
//
//	go run ./cmd/radarmap \
//	  -acidentes data/acidentes_sudeste.csv \
//	  -saida mapa_radares.html \
//	  -json catalogo.json \
//	  -bin 1.0 -escopo per_uf -peso
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/rodovia-segura/radar-priority-etl/internal/adapter/csvfile"
	"github.com/rodovia-segura/radar-priority-etl/internal/adapter/mapfile"
	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
	"github.com/rodovia-segura/radar-priority-etl/internal/scoring"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("acidentes", "", "path to the PRF accident CSV")
	htmlOut := flag.String("saida", "mapa_radares.html", "output path for the HTML map")
	jsonOut := flag.String("json", "", "optional output path for the catalogue JSON")
	binSize := flag.Float64("bin", 1.0, "segment length in km")
	scopeFlag := flag.String("escopo", "global", "normalization scope: global, per_uf or per_highway")
	weighted := flag.Bool("peso", false, "weight densities by injuries and deaths")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -acidentes")
	}

	scope, err := scoring.ParseScope(*scopeFlag)
	if err != nil {
		return err
	}
	opts := scoring.Options{
		BinSizeKm:        *binSize,
		Scope:            scope,
		WeightingEnabled: *weighted,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	records, err := csvfile.ReadAccidentRecords(*csvPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *csvPath, err)
	}
	log.Printf("read %d records", len(records))

	events, rejected := normalizeAll(records)
	log.Printf("normalized %d events", len(events))
	printRejections(rejected)

	catalogue, err := scoring.Score(events, opts)
	if err != nil {
		return err
	}
	log.Printf("catalogue %s: %d segments, %d degenerate scopes",
		catalogue.BuildID, len(catalogue.Segments), catalogue.DegenerateScopes)

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, catalogue); err != nil {
			return fmt.Errorf("writing catalogue JSON: %w", err)
		}
		log.Printf("wrote catalogue: %s", *jsonOut)
	}

	if err := mapfile.WriteHTML(*htmlOut, catalogue); err != nil {
		return fmt.Errorf("writing map: %w", err)
	}
	log.Printf("wrote map: %s", *htmlOut)

	printTop(catalogue, 10)
	return nil
}

// normalizeAll validates every record, deduplicating by event ID and
// tallying rejections by reason.
func normalizeAll(records []domain.RawAccidentRecord) ([]domain.AccidentEvent, map[string]int) {
	rejected := map[string]int{}
	byID := map[string]domain.AccidentEvent{}

	for _, rec := range records {
		event, err := domain.NormalizeRecord(rec)
		if err != nil {
			reason := domain.RejectReason(err)
			if reason == "" {
				reason = "unknown"
			}
			rejected[reason]++
			continue
		}
		byID[event.ID] = event
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	events := make([]domain.AccidentEvent, len(ids))
	for i, id := range ids {
		events[i] = byID[id]
	}
	return events, rejected
}

func printRejections(rejected map[string]int) {
	reasons := make([]string, 0, len(rejected))
	for r := range rejected {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		log.Printf("rejected %d records: %s", rejected[r], r)
	}
}

func printTop(catalogue scoring.Catalogue, n int) {
	segments := make([]scoring.ScoredSegment, len(catalogue.Segments))
	copy(segments, catalogue.Segments)
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Priority > segments[j].Priority
	})
	if len(segments) > n {
		segments = segments[:n]
	}

	log.Printf("top %d segments by priority:", len(segments))
	for _, s := range segments {
		log.Printf("  %-18s km %7.1f-%-7.1f priority %5.1f density %.2f (%d accidents)",
			s.ID, s.StartKm, s.EndKm, s.Priority, s.Density, s.AccidentCount)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
