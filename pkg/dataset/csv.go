package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ExportCSV writes every non-geometry attribute column of src to a
// comma-separated snapshot at path. The first header column is always
// CanonicalID, replacing the source schema's native identifier name so
// downstream instructions can reference rows uniformly.
func ExportCSV(src *Memory, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := src.Columns()
	header := make([]string, 0, len(cols)+1)
	header = append(header, CanonicalID)
	for _, c := range cols {
		header = append(header, c.Name)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < src.NumRows(); i++ {
		feat := src.Feature(i)
		record[0] = strconv.FormatInt(feat.ID, 10)
		for j, c := range cols {
			record[j+1] = formatCell(feat.Attrs[c.Name])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write snapshot row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}

// CSVRow is one record of a loaded snapshot.
type CSVRow struct {
	ID     int64
	Values map[string]string
}

// CSVTable is a loaded tabular snapshot, keyed by the canonical row
// identifier.
type CSVTable struct {
	Columns []string // everything except CanonicalID
	Rows    []CSVRow
}

// LoadCSV reads a snapshot back, requiring CanonicalID as the first
// header column. Identifier values are parsed as integers explicitly;
// letting them decay to floats breaks the join against shell rows.
func LoadCSV(path string) (*CSVTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %s has no header row", path)
	}
	header := records[0]
	if len(header) == 0 || header[0] != CanonicalID {
		return nil, fmt.Errorf("snapshot %s: first column is %q, want %s", path, headerName(header), CanonicalID)
	}

	t := &CSVTable{Columns: header[1:]}
	for i, rec := range records[1:] {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("snapshot row %d: bad %s value %q", i+1, CanonicalID, rec[0])
		}
		row := CSVRow{ID: id, Values: make(map[string]string, len(header)-1)}
		for j, col := range t.Columns {
			row.Values[col] = rec[j+1]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func headerName(header []string) string {
	if len(header) == 0 {
		return ""
	}
	return header[0]
}

// Join attaches every snapshot column except the row identifier onto
// the shell, matching rows by identifier. A shell row with no matching
// snapshot row fails the join; partial output is never committed.
func Join(shell *Memory, t *CSVTable) error {
	index := make(map[int64]CSVRow, len(t.Rows))
	for _, row := range t.Rows {
		index[row.ID] = row
	}
	for _, col := range t.Columns {
		shell.AddColumn(Column{Name: col, Type: Float})
	}
	for i := 0; i < shell.NumRows(); i++ {
		feat := shell.Feature(i)
		row, ok := index[feat.ID]
		if !ok {
			return fmt.Errorf("join: no snapshot row for %s=%d", CanonicalID, feat.ID)
		}
		for _, col := range t.Columns {
			feat.Attrs[col] = parseCell(row.Values[col])
		}
	}
	return nil
}

func parseCell(s string) any {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
