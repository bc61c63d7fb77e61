package blacklist

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/models"
)

// Schema declares how one tabular source lays out its columns. Optional
// columns are nil when the sheet does not carry them.
type Schema struct {
	HeaderRows int
	Handle     int
	ID         int
	BanLength  *int
	Appealable *int
	Reason     *int
}

// SchemaFromConfig converts a configured sheet declaration into a Schema.
func SchemaFromConfig(sc config.SheetConfig) Schema {
	return Schema{
		HeaderRows: sc.HeaderRows,
		Handle:     sc.Columns.Handle,
		ID:         sc.Columns.ID,
		BanLength:  sc.Columns.BanLength,
		Appealable: sc.Columns.Appealable,
		Reason:     sc.Columns.Reason,
	}
}

// maxColumn is the highest mapped column index; rows get padded to it so
// short rows never fault.
func (s Schema) maxColumn() int {
	max := s.Handle
	if s.ID > max {
		max = s.ID
	}
	for _, opt := range []*int{s.BanLength, s.Appealable, s.Reason} {
		if opt != nil && *opt > max {
			max = *opt
		}
	}
	return max
}

// tableRow is one raw row with optional per-cell strikethrough flags.
// struck is nil for transports without formatting metadata.
type tableRow struct {
	cells  []string
	struck []bool
}

// ParseResult is the output of one parse pass.
type ParseResult struct {
	Records []models.BlacklistRecord
	Dropped int
}

// ParseCSV parses a plain CSV export of a sheet. FieldsPerRecord is disabled
// because merged-cell exports produce ragged rows.
func ParseCSV(sourceName string, data []byte, schema Schema) (ParseResult, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rawRows, err := reader.ReadAll()
	if err != nil {
		return ParseResult{}, fmt.Errorf("parsing CSV for %s: %w", sourceName, err)
	}

	rows := make([]tableRow, 0, len(rawRows))
	for _, r := range rawRows {
		rows = append(rows, tableRow{cells: r})
	}
	return parseTable(sourceName, rows, schema), nil
}

// parseTable applies the shared row rules: skip the declared preamble, pad
// short rows, drop rows whose id column is not all digits, normalize the
// appealable vocabulary, mark rows struck through on the handle or id cell
// as retracted, and let the last row win on duplicate ids.
func parseTable(sourceName string, rows []tableRow, schema Schema) ParseResult {
	var out ParseResult
	byID := make(map[string]int)
	width := schema.maxColumn() + 1

	for i, row := range rows {
		if i < schema.HeaderRows {
			continue
		}

		cells := row.cells
		for len(cells) < width {
			cells = append(cells, "")
		}

		id := strings.TrimSpace(cells[schema.ID])
		if !isAllDigits(id) {
			out.Dropped++
			continue
		}

		rec := models.BlacklistRecord{
			SourceName:    sourceName,
			SubjectHandle: strings.TrimSpace(cells[schema.Handle]),
			SubjectID:     id,
			Appealable:    models.AppealableUnspecified,
			Retracted:     row.struckAt(schema.ID) || row.struckAt(schema.Handle),
		}
		if schema.BanLength != nil {
			rec.BanLength = strings.TrimSpace(cells[*schema.BanLength])
		}
		if schema.Appealable != nil {
			rec.Appealable = NormalizeAppealable(cells[*schema.Appealable])
		}
		if schema.Reason != nil {
			rec.Reason = strings.TrimSpace(cells[*schema.Reason])
		}

		if prev, ok := byID[rec.SubjectID]; ok {
			out.Records[prev] = rec
		} else {
			byID[rec.SubjectID] = len(out.Records)
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

func (r tableRow) struckAt(col int) bool {
	return col < len(r.struck) && r.struck[col]
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeAppealable maps the free-form appealable cell onto the fixed
// tri-state vocabulary. Matching is case-insensitive with trailing
// punctuation stripped; anything outside the vocabulary is Unspecified.
func NormalizeAppealable(raw string) models.Appealable {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, ".,;:!? ")
	switch strings.ToLower(s) {
	case "yes", "y", "true", "✓", "✔":
		return models.AppealableYes
	case "no", "n", "false", "✗", "✘", "×", "x":
		return models.AppealableNo
	default:
		return models.AppealableUnspecified
	}
}

// groupIDPattern matches the digit runs the group blacklist document embeds.
// Anything shorter than 6 digits is prose, not a group id.
var groupIDPattern = regexp.MustCompile(`\b(\d{6,})\b`)

// ParseGroupDoc extracts the deduplicated group-id set from the plain-text
// group blacklist document, preserving first-seen order.
func ParseGroupDoc(data []byte) []string {
	matches := groupIDPattern.FindAllString(string(data), -1)
	seen := make(map[string]struct{}, len(matches))
	var ids []string
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		ids = append(ids, m)
	}
	return ids
}
