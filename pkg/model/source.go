package model

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/cascadia-geo/fuzzgraph/pkg/dataset"
)

// OpenDataset materializes the model's dataset reference as an
// in-memory dataset. Inside a hosting canvas the handle comes from the
// canvas itself; for CLI runs the reference is a CSV file whose
// idField column carries the stable row identifier.
func OpenDataset(ref DatasetRef) (*dataset.Memory, error) {
	f, err := os.Open(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", ref.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", ref.Path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("dataset %s has no header row", ref.Path)
	}
	header := records[0]

	idIdx := -1
	for i, name := range header {
		if name == ref.IDField {
			idIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("dataset %s has no identifier column %q", ref.Path, ref.IDField)
	}

	declared := make(map[string]dataset.Type, len(ref.Columns))
	for _, c := range ref.Columns {
		declared[c.Name] = dataset.Type(c.Type)
	}

	var cols []dataset.Column
	for i, name := range header {
		if i == idIdx {
			continue
		}
		t, ok := declared[name]
		if !ok {
			t = inferType(records[1:], i)
		}
		cols = append(cols, dataset.Column{Name: name, Type: t})
	}

	m := dataset.NewMemory(ref.Path, ref.IDField, cols)
	for rowIdx, rec := range records[1:] {
		id, err := strconv.ParseInt(rec[idIdx], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset row %d: bad %s value %q", rowIdx+1, ref.IDField, rec[idIdx])
		}
		attrs := make(map[string]any, len(cols))
		for i, name := range header {
			if i == idIdx {
				continue
			}
			attrs[name] = parseAttr(rec[i])
		}
		m.Append(id, nil, attrs)
	}
	return m, nil
}

func parseAttr(s string) any {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// inferType classifies an undeclared column from its values.
func inferType(rows [][]string, col int) dataset.Type {
	sawFloat := false
	sawAny := false
	for _, rec := range rows {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		sawAny = true
		if _, err := strconv.ParseInt(rec[col], 10, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseFloat(rec[col], 64); err == nil {
			sawFloat = true
			continue
		}
		return dataset.Text
	}
	if !sawAny {
		return dataset.Text
	}
	if sawFloat {
		return dataset.Float
	}
	return dataset.Integer
}
