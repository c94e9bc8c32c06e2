package statsapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/gamelogs/internal/domain/model"
)

type response struct {
	ResultSets []resultSet `json:"resultSets"`
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

// decodeTable turns a response body into the first result set's table.
// Numbers stay json.Number so they are written back exactly as received.
func decodeTable(body []byte) (*model.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp response
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	if len(resp.ResultSets) == 0 {
		return nil, ErrMissingResultSets
	}

	first := resp.ResultSets[0]
	if len(first.Headers) == 0 {
		return nil, fmt.Errorf("%w: result set %q has no headers", ErrMissingResultSets, first.Name)
	}

	rows := first.RowSet
	if rows == nil {
		rows = [][]any{}
	}
	table, err := model.NewTable(first.Headers, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingResultSets, err)
	}
	return table, nil
}
