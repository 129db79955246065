// Package filters maps configured filter names to feature-filtering
// functions. The mapping is populated from a fixed registration list at
// startup; a run chooses its filter by name, but no code is loaded
// dynamically. The engine's only contract with a filter is that it returns
// a table indexable by sample identifier.
package filters

import (
	"fmt"
	"sort"

	"github.com/genoflow/genoflow/internal/table"
)

// Func filters one raw feature table. The feature and output labels are
// passed so a filter can vary its behavior per feature-set cell.
type Func func(tbl *table.Table, featuresLabel, outputLabel string) (*table.Table, error)

// Registry maps filter names to functions.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns an empty filter registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds a named filter. Re-registering a name panics; the
// registration list is fixed at startup.
func (r *Registry) Register(name string, fn Func) {
	if _, exists := r.funcs[name]; exists {
		panic(fmt.Sprintf("filter %q already registered", name))
	}
	r.funcs[name] = fn
}

// Lookup resolves a filter by its configured name.
func (r *Registry) Lookup(name string) (Func, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("unknown feature filter %q (registered: %v)", name, r.Names())
	}
	return fn, nil
}

// Names returns the registered filter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry holding the filters compiled into the binary.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("passthrough", Passthrough)
	r.Register("drop_constant", DropConstant)
	return r
}

// Passthrough returns the table unchanged.
func Passthrough(tbl *table.Table, featuresLabel, outputLabel string) (*table.Table, error) {
	return tbl, nil
}

// DropConstant removes columns whose value is identical across every row;
// constant features carry no signal for the downstream models.
func DropConstant(tbl *table.Table, featuresLabel, outputLabel string) (*table.Table, error) {
	rows := tbl.Rows()
	var keep []string
	for _, col := range tbl.Cols() {
		constant := true
		var first string
		for i, id := range rows {
			v, _ := tbl.Cell(id, col)
			if i == 0 {
				first = v
				continue
			}
			if v != first {
				constant = false
				break
			}
		}
		if !constant || len(rows) <= 1 {
			keep = append(keep, col)
		}
	}

	out := table.New(keep)
	for _, id := range rows {
		values := make([]string, len(keep))
		for i, col := range keep {
			values[i], _ = tbl.Cell(id, col)
		}
		if err := out.AddRow(id, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
