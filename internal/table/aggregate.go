package table

import "fmt"

// AggregateFeatures joins the filtered tables for one run into a single
// matrix indexed by sample. Columns are concatenated in table order; rows
// are the samples present with a value in every joined table, in the first
// table's row order. Samples missing anywhere are dropped so the aggregate
// is fully dense.
func AggregateFeatures(tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to aggregate")
	}

	var cols []string
	for _, t := range tables {
		cols = append(cols, t.Cols()...)
	}
	out := New(cols)

	for _, id := range tables[0].Rows() {
		values := make([]string, 0, len(cols))
		dense := true
		for _, t := range tables {
			// Positional row access keeps a column name shared by two
			// tables bound to each table's own value.
			row, ok := t.Row(id)
			if !ok {
				dense = false
				break
			}
			for _, v := range row {
				if v == "" {
					dense = false
					break
				}
			}
			if !dense {
				break
			}
			values = append(values, row...)
		}
		if !dense {
			continue
		}
		if err := out.AddRow(id, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
