package formula

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed tables/*.json
var bundledTables embed.FS

// Status fields a row may carry besides inputs and outputs
const (
	statusExact  = "exact"
	statusRevert = "revert"
	statusBranch = "branch"
)

// Status holds a row's optional status fields
type Status struct {
	// Exact marks boundary rows compared bit-exactly
	Exact bool
	// Revert is the expected revert reason, if any
	Revert string
	// Branch is the pre-classified branch; it must agree with the predicate
	Branch string
}

// Case is one row of a verification table
type Case struct {
	Index    int
	Inputs   Values
	Expected Values
	Status   Status
}

// Table is a static set of cases for one formula and coverage scenario
type Table struct {
	Formula  *Formula
	Scenario string
	Source   string
	Cases    []Case
}

// Name is formula.scenario
func (t *Table) Name() string {
	return t.Formula.Name + "." + t.Scenario
}

// ParseTable decodes a table file named <formula>.<scenario>.json
func ParseTable(name string, data []byte) (*Table, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	formulaName, scenario, ok := strings.Cut(base, ".")
	if !ok || scenario == "" {
		return nil, fmt.Errorf("table %s: file name must be <formula>.<scenario>.json", name)
	}
	f, err := Lookup(formulaName)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}

	var rows []map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("table %s: failed to decode rows: %w", name, err)
	}

	table := &Table{Formula: f, Scenario: scenario, Source: name}
	for i, row := range rows {
		c, err := parseCase(f, i, row)
		if err != nil {
			return nil, fmt.Errorf("table %s row %d: %w", name, i, err)
		}
		table.Cases = append(table.Cases, c)
	}
	return table, nil
}

func parseCase(f *Formula, index int, row map[string]json.RawMessage) (Case, error) {
	c := Case{Index: index, Inputs: Values{}, Expected: Values{}}

	isInput := make(map[string]bool, len(f.Inputs))
	for _, in := range f.Inputs {
		isInput[in] = true
	}
	isOutput := make(map[string]bool, len(f.Outputs))
	for _, out := range f.Outputs {
		isOutput[out] = true
	}

	for key, raw := range row {
		switch {
		case key == statusExact:
			if err := json.Unmarshal(raw, &c.Status.Exact); err != nil {
				return Case{}, fmt.Errorf("%s must be a boolean: %w", key, err)
			}
		case key == statusRevert:
			if err := json.Unmarshal(raw, &c.Status.Revert); err != nil {
				return Case{}, fmt.Errorf("%s must be a string: %w", key, err)
			}
		case key == statusBranch:
			if err := json.Unmarshal(raw, &c.Status.Branch); err != nil {
				return Case{}, fmt.Errorf("%s must be a string: %w", key, err)
			}
		case isInput[key], isOutput[key]:
			v, err := parseCell(raw)
			if err != nil {
				return Case{}, fmt.Errorf("%s: %w", key, err)
			}
			if isInput[key] {
				c.Inputs[key] = v
			} else {
				c.Expected[key] = v
			}
		default:
			return Case{}, fmt.Errorf("unknown field %q for %s", key, f.Name)
		}
	}

	for _, in := range f.Inputs {
		if _, ok := c.Inputs[in]; !ok {
			return Case{}, fmt.Errorf("missing input %q", in)
		}
	}
	return c, nil
}

// parseCell accepts decimal strings, "n/d" strings, booleans and plain JSON numbers
func parseCell(raw json.RawMessage) (Value, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseValue(s)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return Bool(b), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return ParseValue(n.String())
	}
	return Value{}, fmt.Errorf("unsupported cell %s", string(raw))
}

// LoadTableFile reads a table from disk
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	return ParseTable(path, data)
}

// LoadTablesDir reads every *.json table in dir, sorted by file name
func LoadTablesDir(dir string) ([]*Table, error) {
	return loadTables(os.DirFS(dir), ".", dir)
}

// BundledTables returns the tables shipped with the binary
func BundledTables() ([]*Table, error) {
	return loadTables(bundledTables, "tables", "tables")
}

func loadTables(fsys fs.FS, root, display string) ([]*Table, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", display, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var tables []*Table
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, pathJoin(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", entry.Name(), err)
		}
		table, err := ParseTable(filepath.Join(display, entry.Name()), data)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func pathJoin(root, name string) string {
	if root == "." {
		return name
	}
	return root + "/" + name
}

// SweepTable turns a formula's parameter grid into a table with reference-computed expectations
func SweepTable(f *Formula) *Table {
	grid := f.Sweep()
	table := &Table{Formula: f, Scenario: "sweep", Source: "sweep", Cases: make([]Case, len(grid))}
	for i, in := range grid {
		table.Cases[i] = Case{Index: i, Inputs: in, Expected: Values{}}
	}
	return table
}
