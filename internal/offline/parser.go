package offline

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	toks    []token
	i       int
	nparams int
}

// Parse parses a single SQL statement.
func Parse(sql string) (Statement, error) {
	toks, err := tokenize(sql)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	p := &parser{toks: toks}
	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}
	if p.cur().typ == tSymbol && p.cur().val == ";" {
		p.advance()
	}
	if p.cur().typ != tEOF {
		return nil, p.errf("unexpected trailing input")
	}
	return stmt, nil
}

func (p *parser) cur() token { return p.toks[p.i] }

func (p *parser) advance() token {
	t := p.toks[p.i]
	if t.typ != tEOF {
		p.i++
	}
	return t
}

func (p *parser) errf(format string, args ...any) error {
	t := p.cur()
	near := t.val
	if t.typ == tEOF {
		near = "end of input"
	}
	return fmt.Errorf("parse error near %q: %s", near, fmt.Sprintf(format, args...))
}

func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.typ == tIdent && !t.quoted && strings.EqualFold(t.val, kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return p.errf("expected %s", kw)
	}
	return nil
}

func (p *parser) isSymbol(sym string) bool {
	t := p.cur()
	return t.typ == tSymbol && t.val == sym
}

func (p *parser) acceptSymbol(sym string) bool {
	if p.isSymbol(sym) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectSymbol(sym string) error {
	if !p.acceptSymbol(sym) {
		return p.errf("expected %q", sym)
	}
	return nil
}

// ident reads an identifier and folds it to lower case.
func (p *parser) ident(what string) (string, error) {
	t := p.cur()
	if t.typ != tIdent {
		return "", p.errf("expected %s name", what)
	}
	p.advance()
	return strings.ToLower(t.val), nil
}

func (p *parser) statement() (Statement, error) {
	switch {
	case p.acceptKeyword("CREATE"):
		return p.createTable()
	case p.acceptKeyword("DROP"):
		return p.dropTable()
	case p.acceptKeyword("INSERT"):
		return p.insert()
	case p.acceptKeyword("UPDATE"):
		return p.update()
	case p.acceptKeyword("DELETE"):
		return p.delete()
	case p.acceptKeyword("SELECT"):
		return p.selectStmt()
	}
	return nil, p.errf("unsupported statement")
}

func (p *parser) createTable() (Statement, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	var st createTable
	if p.acceptKeyword("IF") {
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		st.ifNotExists = true
	}
	name, err := p.ident("table")
	if err != nil {
		return nil, err
	}
	st.schema.Name = name
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.columnDef()
		if err != nil {
			return nil, err
		}
		if st.schema.index(col.Name) >= 0 {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if col.PrimaryKey && st.schema.primaryKey() >= 0 {
			return nil, fmt.Errorf("table %q has more than one primary key", name)
		}
		st.schema.Columns = append(st.schema.Columns, col)
		if p.acceptSymbol(",") {
			continue
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return st, nil
	}
}

func (p *parser) columnDef() (Column, error) {
	name, err := p.ident("column")
	if err != nil {
		return Column{}, err
	}
	col := Column{Name: name}
	t := p.cur()
	if t.typ != tIdent {
		return Column{}, p.errf("expected type for column %q", name)
	}
	p.advance()
	switch strings.ToUpper(t.val) {
	case "INTEGER", "INT", "BIGINT":
		col.Type = TypeInteger
	case "REAL", "FLOAT", "DOUBLE", "NUMERIC":
		col.Type = TypeReal
	case "TEXT", "VARCHAR", "CHAR", "STRING":
		col.Type = TypeText
	case "BOOLEAN", "BOOL":
		col.Type = TypeBoolean
	default:
		return Column{}, fmt.Errorf("unsupported column type %q", t.val)
	}
	if p.acceptSymbol("(") {
		if p.cur().typ != tNumber {
			return Column{}, p.errf("expected length")
		}
		p.advance()
		if err := p.expectSymbol(")"); err != nil {
			return Column{}, err
		}
	}
	for {
		switch {
		case p.acceptKeyword("PRIMARY"):
			if err := p.expectKeyword("KEY"); err != nil {
				return Column{}, err
			}
			col.PrimaryKey = true
		case p.acceptKeyword("AUTOINCREMENT"):
			col.AutoIncrement = true
		case p.acceptKeyword("NOT"):
			if err := p.expectKeyword("NULL"); err != nil {
				return Column{}, err
			}
			col.NotNull = true
		default:
			if col.AutoIncrement && !(col.PrimaryKey && col.Type == TypeInteger) {
				return Column{}, fmt.Errorf("AUTOINCREMENT is only allowed on an INTEGER PRIMARY KEY")
			}
			return col, nil
		}
	}
}

func (p *parser) dropTable() (Statement, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	var st dropTable
	if p.acceptKeyword("IF") {
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		st.ifExists = true
	}
	name, err := p.ident("table")
	if err != nil {
		return nil, err
	}
	st.table = name
	return st, nil
}

func (p *parser) insert() (Statement, error) {
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	var st insert
	var err error
	if st.table, err = p.ident("table"); err != nil {
		return nil, err
	}
	if p.acceptSymbol("(") {
		if st.columns, err = p.identList(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		var row []operand
		for {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
			if p.acceptSymbol(",") {
				continue
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			break
		}
		st.rows = append(st.rows, row)
		if !p.acceptSymbol(",") {
			break
		}
	}
	st.nparams = p.nparams
	return st, nil
}

// identList reads "a, b, c)" after an opening parenthesis.
func (p *parser) identList() ([]string, error) {
	var out []string
	for {
		name, err := p.ident("column")
		if err != nil {
			return nil, err
		}
		out = append(out, name)
		if p.acceptSymbol(",") {
			continue
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *parser) update() (Statement, error) {
	var st update
	var err error
	if st.table, err = p.ident("table"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.ident("column")
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("="); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		st.set = append(st.set, assignment{column: col, value: v})
		if !p.acceptSymbol(",") {
			break
		}
	}
	if st.where, err = p.where(); err != nil {
		return nil, err
	}
	st.nparams = p.nparams
	return st, nil
}

func (p *parser) delete() (Statement, error) {
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	var st deleteStmt
	var err error
	if st.table, err = p.ident("table"); err != nil {
		return nil, err
	}
	if st.where, err = p.where(); err != nil {
		return nil, err
	}
	st.nparams = p.nparams
	return st, nil
}

func (p *parser) selectStmt() (Statement, error) {
	st := selectStmt{limit: -1}
	switch {
	case p.acceptSymbol("*"):
	case p.isKeyword("COUNT") && p.toks[p.i+1].typ == tSymbol && p.toks[p.i+1].val == "(":
		p.advance()
		p.advance()
		if err := p.expectSymbol("*"); err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		st.count = true
	default:
		for {
			col, err := p.ident("column")
			if err != nil {
				return nil, err
			}
			st.columns = append(st.columns, col)
			if !p.acceptSymbol(",") {
				break
			}
		}
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	var err error
	if st.table, err = p.ident("table"); err != nil {
		return nil, err
	}
	if st.where, err = p.where(); err != nil {
		return nil, err
	}
	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if st.orderBy, err = p.ident("column"); err != nil {
			return nil, err
		}
		if p.acceptKeyword("DESC") {
			st.desc = true
		} else {
			p.acceptKeyword("ASC")
		}
	}
	if p.acceptKeyword("LIMIT") {
		if st.limit, err = p.count(); err != nil {
			return nil, err
		}
		if p.acceptKeyword("OFFSET") {
			if st.offset, err = p.count(); err != nil {
				return nil, err
			}
		}
	}
	st.nparams = p.nparams
	return st, nil
}

func (p *parser) count() (int, error) {
	t := p.cur()
	if t.typ != tNumber {
		return 0, p.errf("expected a non-negative integer")
	}
	n, err := strconv.Atoi(t.val)
	if err != nil || n < 0 {
		return 0, p.errf("expected a non-negative integer")
	}
	p.advance()
	return n, nil
}

func (p *parser) where() ([]condition, error) {
	if !p.acceptKeyword("WHERE") {
		return nil, nil
	}
	var conds []condition
	for {
		c, err := p.condition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
		if !p.acceptKeyword("AND") {
			return conds, nil
		}
	}
}

func (p *parser) condition() (condition, error) {
	col, err := p.ident("column")
	if err != nil {
		return condition{}, err
	}
	c := condition{column: col}
	if p.acceptKeyword("IS") {
		if p.acceptKeyword("NOT") {
			c.op = "IS NOT NULL"
		} else {
			c.op = "IS NULL"
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return condition{}, err
		}
		return c, nil
	}
	if p.acceptKeyword("LIKE") {
		c.op = "LIKE"
	} else {
		t := p.cur()
		if t.typ != tSymbol {
			return condition{}, p.errf("expected comparison operator")
		}
		switch t.val {
		case "=", "!=", "<", "<=", ">", ">=":
			c.op = t.val
		case "<>":
			c.op = "!="
		default:
			return condition{}, p.errf("expected comparison operator")
		}
		p.advance()
	}
	if c.value, err = p.value(); err != nil {
		return condition{}, err
	}
	return c, nil
}

func (p *parser) value() (operand, error) {
	t := p.cur()
	switch t.typ {
	case tParam:
		p.advance()
		op := operand{param: p.nparams}
		p.nparams++
		return op, nil
	case tString:
		p.advance()
		return literal(t.val), nil
	case tNumber:
		p.advance()
		return number(t.val, false)
	case tSymbol:
		if t.val == "-" || t.val == "+" {
			p.advance()
			n := p.cur()
			if n.typ != tNumber {
				return operand{}, p.errf("expected number")
			}
			p.advance()
			return number(n.val, t.val == "-")
		}
	case tIdent:
		if !t.quoted {
			switch strings.ToUpper(t.val) {
			case "NULL":
				p.advance()
				return literal(nil), nil
			case "TRUE":
				p.advance()
				return literal(true), nil
			case "FALSE":
				p.advance()
				return literal(false), nil
			}
		}
	}
	return operand{}, p.errf("expected a value")
}

func number(s string, neg bool) (operand, error) {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if neg {
				n = -n
			}
			return literal(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return operand{}, fmt.Errorf("invalid number %q", s)
	}
	if neg {
		f = -f
	}
	return literal(f), nil
}
