package blacklist

import (
	"encoding/json"
	"fmt"
)

// gridPayload mirrors the slice of the Sheets v4 grid response this parser
// needs: formatted cell values plus the text-format strikethrough flag.
type gridPayload struct {
	Sheets []struct {
		Data []struct {
			RowData []struct {
				Values []struct {
					FormattedValue  string `json:"formattedValue"`
					EffectiveFormat struct {
						TextFormat struct {
							Strikethrough bool `json:"strikethrough"`
						} `json:"textFormat"`
					} `json:"effectiveFormat"`
				} `json:"values"`
			} `json:"rowData"`
		} `json:"data"`
	} `json:"sheets"`
}

// ParseGrid parses the formatting-aware grid representation of a sheet.
// A row whose handle or id cell is struck through comes out retracted.
func ParseGrid(sourceName string, data []byte, schema Schema) (ParseResult, error) {
	var payload gridPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ParseResult{}, fmt.Errorf("parsing grid for %s: %w", sourceName, err)
	}
	if len(payload.Sheets) == 0 || len(payload.Sheets[0].Data) == 0 {
		return ParseResult{}, fmt.Errorf("grid for %s carries no sheet data", sourceName)
	}

	var rows []tableRow
	for _, rd := range payload.Sheets[0].Data[0].RowData {
		row := tableRow{
			cells:  make([]string, 0, len(rd.Values)),
			struck: make([]bool, 0, len(rd.Values)),
		}
		for _, cell := range rd.Values {
			row.cells = append(row.cells, cell.FormattedValue)
			row.struck = append(row.struck, cell.EffectiveFormat.TextFormat.Strikethrough)
		}
		rows = append(rows, row)
	}
	return parseTable(sourceName, rows, schema), nil
}
