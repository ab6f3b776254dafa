package offline

// ColumnType is the storage class of a column.
type ColumnType string

const (
	TypeInteger ColumnType = "INTEGER"
	TypeReal    ColumnType = "REAL"
	TypeText    ColumnType = "TEXT"
	TypeBoolean ColumnType = "BOOLEAN"
)

// Column describes one table column.
type Column struct {
	Name          string     `json:"name"`
	Type          ColumnType `json:"type"`
	PrimaryKey    bool       `json:"primary_key,omitempty"`
	AutoIncrement bool       `json:"auto_increment,omitempty"`
	NotNull       bool       `json:"not_null,omitempty"`
}

// Schema is a table definition.
type Schema struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

func (s *Schema) index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// rowIDColumn returns the INTEGER PRIMARY KEY column, or -1.
func (s *Schema) rowIDColumn() int {
	for i, c := range s.Columns {
		if c.PrimaryKey && c.Type == TypeInteger {
			return i
		}
	}
	return -1
}

func (s *Schema) primaryKey() int {
	for i, c := range s.Columns {
		if c.PrimaryKey {
			return i
		}
	}
	return -1
}

// operand is a literal or a positional parameter.
type operand struct {
	param int // index into args, or -1
	value any
}

func literal(v any) operand { return operand{param: -1, value: v} }

func (o operand) resolve(args []any) any {
	if o.param >= 0 {
		return args[o.param]
	}
	return o.value
}

type condition struct {
	column string
	op     string // = != < <= > >= LIKE, IS NULL, IS NOT NULL
	value  operand
}

type assignment struct {
	column string
	value  operand
}

// Statement is a parsed SQL statement.
type Statement interface {
	params() int
}

type createTable struct {
	schema      Schema
	ifNotExists bool
}

type dropTable struct {
	table    string
	ifExists bool
}

type insert struct {
	table   string
	columns []string
	rows    [][]operand
	nparams int
}

type update struct {
	table   string
	set     []assignment
	where   []condition
	nparams int
}

type deleteStmt struct {
	table   string
	where   []condition
	nparams int
}

type selectStmt struct {
	table   string
	columns []string // nil means *
	count   bool
	where   []condition
	orderBy string
	desc    bool
	limit   int // -1 means none
	offset  int
	nparams int
}

func (createTable) params() int  { return 0 }
func (dropTable) params() int    { return 0 }
func (s insert) params() int     { return s.nparams }
func (s update) params() int     { return s.nparams }
func (s deleteStmt) params() int { return s.nparams }
func (s selectStmt) params() int { return s.nparams }
