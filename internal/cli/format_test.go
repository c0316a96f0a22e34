package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/matchfund/internal/matching"
)

func TestPrintMatchers(t *testing.T) {
	var buf bytes.Buffer
	printMatchers(&buf, testRecords())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "INDEX")
	assert.Contains(t, lines[0], "WITHDRAWABLE")
	assert.Contains(t, lines[1], "5.000000000000000000")
	assert.Contains(t, lines[2], "0.000000000000000000")
	assert.Contains(t, lines[4], "2.0000000000")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[4]), "true"))
}

func TestPrintMatchers_Empty(t *testing.T) {
	var buf bytes.Buffer
	printMatchers(&buf, nil)
	assert.Equal(t, "No matchers found\n", buf.String())
}

func TestToMatcherJSON(t *testing.T) {
	records := testRecords()

	tests := []struct {
		record    matching.MatchRecord
		wantState string
	}{
		{records[0], "expired"},
		{records[1], "exhausted"},
		{records[2], "active"},
	}

	for _, tt := range tests {
		t.Run(tt.wantState, func(t *testing.T) {
			got := toMatcherJSON(tt.record, testNow)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.record.Index, got.Index)
		})
	}

	got := toMatcherJSON(records[2], testNow)
	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"index": 2,
		"funds": "1000000000000000000",
		"fundsEth": "1",
		"matcher": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"donateAddress": "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"matchMultiplier": 512,
		"matchAmount": "0.5",
		"deadline": "2026-03-02T12:00:00Z",
		"withdrawableBeforeDeadline": false,
		"state": "active"
	}`, string(data))
}

func TestPrintReceipt(t *testing.T) {
	var buf bytes.Buffer
	printReceipt(&buf, testReceipt)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "0x1", decoded["status"])
	assert.Equal(t, "0x7", decoded["blockNumber"])
	assert.Equal(t, testReceipt.TxHash.Hex(), decoded["transactionHash"])
}
