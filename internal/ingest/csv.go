package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tmarks/go-relief-allocator/internal/classifier"
	"github.com/tmarks/go-relief-allocator/internal/models"
)

// Record is one parsed CSV row: the event plus the raw impact features the
// classifier needs when the severity column is blank.
type Record struct {
	Event    models.DisasterEvent
	Features classifier.Features
	// SeverityMissing is true when the row had no tier and one must be
	// predicted before allocation.
	SeverityMissing bool
}

// ParseEvents reads event records from CSV. The expected header is
// id,type,severity,people_affected,deaths,damages_usd,location; only type
// and people_affected are required. Malformed rows are returned as skipped
// entries with a reason code; they never abort the file.
func ParseEvents(r io.Reader) ([]Record, []models.SkippedEvent, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"type", "people_affected"} {
		if _, ok := idx[required]; !ok {
			return nil, nil, fmt.Errorf("CSV header missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	var skipped []models.SkippedEvent
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading CSV line %d: %w", line, err)
		}

		id := field(row, "id")
		typeStr := field(row, "type")
		if typeStr == "" {
			skipped = append(skipped, models.SkippedEvent{ID: id, Reason: models.SkipEmptyRecord})
			continue
		}

		people, err := strconv.ParseInt(field(row, "people_affected"), 10, 64)
		if err != nil {
			skipped = append(skipped, models.SkippedEvent{ID: id, Reason: models.SkipEmptyRecord})
			continue
		}
		if people < 0 {
			skipped = append(skipped, models.SkippedEvent{ID: id, Reason: models.SkipNegativePeople})
			continue
		}

		rec := Record{
			Event: models.DisasterEvent{
				ID:             id,
				Type:           models.ParseDisasterType(typeStr),
				PeopleAffected: people,
				Location:       field(row, "location"),
				ReportedAt:     time.Now().UTC(),
			},
			Features: classifier.Features{
				Type:           models.ParseDisasterType(typeStr),
				PeopleAffected: people,
				Deaths:         parseOptionalInt(field(row, "deaths")),
				DamagesUSD:     parseOptionalInt(field(row, "damages_usd")),
			},
		}

		if sevStr := field(row, "severity"); sevStr == "" {
			rec.SeverityMissing = true
		} else {
			// Unknown tiers default to Low here; the coordinator would do
			// the same, but flagging at parse time keeps the warning close
			// to the bad input.
			rec.Event.Severity, _ = models.ParseSeverity(sevStr)
		}

		records = append(records, rec)
	}

	return records, skipped, nil
}

func parseOptionalInt(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
