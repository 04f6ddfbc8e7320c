package viewmodel

// Cell is one rendered table cell. Badge cells are shown as a status pill.
type Cell struct {
	Text  string
	Badge bool
	Link  string
}

// Row is one list item flattened for display.
type Row struct {
	ID     string
	Status string
	Cells  []Cell
	// Readable rows carry a read state (notifications).
	Readable bool
	Read     bool
}

// Table is a list page flattened for display.
type Table struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }
