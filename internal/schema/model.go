package schema

type Table struct {
	Name    string
	Columns []*Column
}

type Column struct {
	Name     string
	DataType string // declared type including modifiers, e.g. varchar(40)
	Nullable bool
	Default  *string // nil when the column has no default
}

// Sequence returns the sequence referenced by the column's nextval()
// default, if any.
func (c *Column) Sequence() (string, bool) {
	if c.Default == nil {
		return "", false
	}
	return SequenceName(*c.Default)
}

// ColumnNames returns the column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SequenceColumns groups the table's sequence-backed columns by sequence,
// in order of first reference.
func (t *Table) SequenceColumns() []SequenceRef {
	var refs []SequenceRef
	index := make(map[string]int)
	for _, c := range t.Columns {
		seq, ok := c.Sequence()
		if !ok {
			continue
		}
		i, seen := index[seq]
		if !seen {
			i = len(refs)
			index[seq] = i
			refs = append(refs, SequenceRef{Name: seq})
		}
		refs[i].Columns = append(refs[i].Columns, c.Name)
	}
	return refs
}

// SequenceRef is a sequence and the columns of one table that draw from it.
type SequenceRef struct {
	Name    string
	Columns []string
}
