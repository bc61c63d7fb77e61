package blacklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGrid = `{
  "sheets": [{
    "data": [{
      "rowData": [
        {"values": [
          {"formattedValue": "Header"}, {"formattedValue": "Name"},
          {"formattedValue": ""}, {"formattedValue": "ID"}
        ]},
        {"values": [
          {"formattedValue": ""}, {"formattedValue": "Alice"},
          {"formattedValue": ""}, {"formattedValue": "123456"},
          {"formattedValue": ""}, {"formattedValue": ""},
          {"formattedValue": ""}, {"formattedValue": "30 days"},
          {"formattedValue": ""}, {"formattedValue": ""},
          {"formattedValue": "Yes"}
        ]},
        {"values": [
          {"formattedValue": ""},
          {"formattedValue": "Mallory", "effectiveFormat": {"textFormat": {"strikethrough": true}}},
          {"formattedValue": ""}, {"formattedValue": "222222"}
        ]}
      ]
    }]
  }]
}`

func TestParseGridMarksStruckRowsRetracted(t *testing.T) {
	result, err := ParseGrid("src", []byte(sampleGrid), sheetSchema())
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "Alice", result.Records[0].SubjectHandle)
	assert.False(t, result.Records[0].Retracted)

	assert.Equal(t, "Mallory", result.Records[1].SubjectHandle)
	assert.True(t, result.Records[1].Retracted)
}

func TestParseGridRejectsMalformedPayload(t *testing.T) {
	_, err := ParseGrid("src", []byte(`not json`), sheetSchema())
	assert.Error(t, err)

	_, err = ParseGrid("src", []byte(`{"sheets": []}`), sheetSchema())
	assert.Error(t, err)
}
