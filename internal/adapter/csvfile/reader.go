// Package csvfile reads PRF open-data accident CSVs into raw records for
// offline runs, where the Kafka collector is not in the loop.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
)

// ReadAccidentRecords loads an accident CSV and maps each row to a raw
// record. Headers are matched case-insensitively and rows shorter than the
// header are skipped, matching how the upstream files drift between years.
func ReadAccidentRecords(path string) ([]domain.RawAccidentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := rows[0]
	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	records := make([]domain.RawAccidentRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(header) {
			continue
		}
		records = append(records, domain.RawAccidentRecord{
			ID:        get(row, colIdx, "id"),
			Data:      get(row, colIdx, "data_inversa"),
			UF:        get(row, colIdx, "uf"),
			BR:        get(row, colIdx, "br"),
			Km:        get(row, colIdx, "km"),
			Latitude:  get(row, colIdx, "latitude"),
			Longitude: get(row, colIdx, "longitude"),
			Feridos:   get(row, colIdx, "feridos"),
			Mortos:    get(row, colIdx, "mortos"),
			Peso:      get(row, colIdx, "peso"),
		})
	}
	return records, nil
}

func get(row []string, colIdx map[string]int, col string) string {
	i, ok := colIdx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
