package table

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Table is a tab-separated matrix indexed by sample identifier. Row and
// column order are preserved exactly as built or read. Values are stored
// positionally, so duplicate column names (the same gene symbol measured
// by two feature tables, say) keep their own values; Cell resolves a
// duplicated name to its first occurrence.
type Table struct {
	cols  []string
	colIx map[string]int
	rows  []string
	cells map[string][]string
}

// New creates an empty table with the given column names.
func New(cols []string) *Table {
	ix := make(map[string]int, len(cols))
	for i, col := range cols {
		if _, dup := ix[col]; !dup {
			ix[col] = i
		}
	}
	return &Table{
		cols:  append([]string{}, cols...),
		colIx: ix,
		cells: make(map[string][]string),
	}
}

// Cols returns the column names in order.
func (t *Table) Cols() []string { return t.cols }

// Rows returns the row identifiers in order.
func (t *Table) Rows() []string { return t.rows }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// AddRow appends a row. The value count must match the column count; a
// duplicate row identifier is an error.
func (t *Table) AddRow(id string, values []string) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("row %q has %d values, want %d", id, len(values), len(t.cols))
	}
	if _, dup := t.cells[id]; dup {
		return fmt.Errorf("duplicate row %q", id)
	}
	t.rows = append(t.rows, id)
	t.cells[id] = append([]string{}, values...)
	return nil
}

// Cell returns the value at (row, col) and whether it is present.
func (t *Table) Cell(row, col string) (string, bool) {
	r, ok := t.cells[row]
	if !ok {
		return "", false
	}
	i, ok := t.colIx[col]
	if !ok {
		return "", false
	}
	return r[i], true
}

// Row returns a row's values in column order and whether the row exists.
func (t *Table) Row(id string) ([]string, bool) {
	r, ok := t.cells[id]
	return r, ok
}

// Has reports whether the table contains the given row.
func (t *Table) Has(row string) bool {
	_, ok := t.cells[row]
	return ok
}

// Project returns a new table holding exactly the requested rows, in the
// requested order. A requested row absent from the table fails with a
// *MissingSampleError.
func (t *Table) Project(rows []string) (*Table, error) {
	out := New(t.cols)
	for _, id := range rows {
		src, ok := t.cells[id]
		if !ok {
			return nil, &MissingSampleError{Sample: id}
		}
		if err := out.AddRow(id, src); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Read parses a tab-separated file whose first column is the sample index
// and whose first row is the header.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading table %q: %w", path, err)
		}
		return nil, fmt.Errorf("table %q is empty", path)
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) < 1 {
		return nil, fmt.Errorf("table %q has no header", path)
	}

	t := New(header[1:])
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if err := t.AddRow(fields[0], fields[1:]); err != nil {
			return nil, fmt.Errorf("table %q: %w", path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading table %q: %w", path, err)
	}
	return t, nil
}

// Write renders the table to a tab-separated file, overwriting any
// previous content. indexHeader names the first (index) column.
func (t *Table) Write(path, indexHeader string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s", indexHeader)
	for _, col := range t.cols {
		fmt.Fprintf(w, "\t%s", col)
	}
	fmt.Fprintln(w)

	for _, id := range t.rows {
		fmt.Fprintf(w, "%s", id)
		for _, v := range t.cells[id] {
			fmt.Fprintf(w, "\t%s", v)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing table %q: %w", path, err)
	}
	return nil
}
