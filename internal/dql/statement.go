package dql

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Templated statements issued by the task screen.
const (
	QuerySubscribeTasks = "SELECT * FROM tasks"
	QueryVisibleTasks   = "SELECT * FROM tasks WHERE deleted = false ORDER BY _id"
	StmtInsertTask      = "INSERT INTO tasks DOCUMENTS (:task)"
	StmtSetTitle        = "UPDATE tasks SET title = :title WHERE _id = :id"
	StmtSetDone         = "UPDATE tasks SET done = :done WHERE _id = :id"
	StmtSoftDelete      = "UPDATE tasks SET deleted = true WHERE _id = :id"
)

type Kind string

const (
	KindSelect Kind = "select"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
)

type ErrorCode string

const (
	ErrCodeEmptyStatement  ErrorCode = "empty_statement"
	ErrCodeUnsupported     ErrorCode = "unsupported"
	ErrCodeSyntax          ErrorCode = "syntax"
	ErrCodeMissingParam    ErrorCode = "missing_param"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type StatementError struct {
	Code    ErrorCode
	Message string
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("dql: %s: %s", e.Code, e.Message)
}

func syntaxErr(format string, args ...any) error {
	return &StatementError{Code: ErrCodeSyntax, Message: fmt.Sprintf(format, args...)}
}

// Operand is either a :param reference or a literal.
type Operand struct {
	Param   string
	Literal any
}

func (o Operand) String() string {
	if o.Param != "" {
		return ":" + o.Param
	}
	return fmt.Sprintf("%v", o.Literal)
}

// Resolve returns the operand value, looking params up by name.
func (o Operand) Resolve(params map[string]any) (any, error) {
	if o.Param == "" {
		return o.Literal, nil
	}
	v, ok := params[o.Param]
	if !ok {
		return nil, &StatementError{Code: ErrCodeMissingParam, Message: fmt.Sprintf("parameter :%s not bound", o.Param)}
	}
	return v, nil
}

type Condition struct {
	Field string
	Value Operand
}

type SelectArgs struct {
	Where   *Condition
	OrderBy string
}

type InsertArgs struct {
	Document Operand
}

type UpdateArgs struct {
	Field string
	Value Operand
	ID    Operand
}

type Statement struct {
	Kind       Kind
	Raw        string
	Collection string
	Select     *SelectArgs
	Insert     *InsertArgs
	Update     *UpdateArgs
}

func Parse(input string) (Statement, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Statement{}, &StatementError{Code: ErrCodeEmptyStatement, Message: "statement is empty"}
	}
	toks := tokenize(raw)
	p := &parser{toks: toks}

	switch head := strings.ToUpper(toks[0]); head {
	case "SELECT":
		return p.parseSelect(raw)
	case "INSERT":
		return p.parseInsert(raw)
	case "UPDATE":
		return p.parseUpdate(raw)
	default:
		return Statement{}, &StatementError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported statement: %s", toks[0])}
	}
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

func (p *parser) expect(words ...string) error {
	for _, w := range words {
		got := p.next()
		if !strings.EqualFold(got, w) {
			if got == "" {
				return syntaxErr("expected %s, got end of statement", w)
			}
			return syntaxErr("expected %s, got %q", w, got)
		}
	}
	return nil
}

func (p *parser) ident(what string) (string, error) {
	tok := p.next()
	if tok == "" || !isIdent(tok) {
		return "", syntaxErr("expected %s, got %q", what, tok)
	}
	return tok, nil
}

func (p *parser) done() error {
	if tok := p.peek(); tok != "" {
		return syntaxErr("unexpected %q", tok)
	}
	return nil
}

func (p *parser) operand() (Operand, error) {
	tok := p.next()
	switch {
	case tok == "":
		return Operand{}, syntaxErr("expected value, got end of statement")
	case strings.HasPrefix(tok, ":"):
		name := strings.TrimPrefix(tok, ":")
		if !isIdent(name) {
			return Operand{}, syntaxErr("invalid parameter %q", tok)
		}
		return Operand{Param: name}, nil
	case strings.EqualFold(tok, "true"):
		return Operand{Literal: true}, nil
	case strings.EqualFold(tok, "false"):
		return Operand{Literal: false}, nil
	case len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'':
		return Operand{Literal: tok[1 : len(tok)-1]}, nil
	default:
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return Operand{Literal: n}, nil
		}
		return Operand{}, syntaxErr("invalid value %q", tok)
	}
}

func (p *parser) parseSelect(raw string) (Statement, error) {
	if err := p.expect("SELECT", "*", "FROM"); err != nil {
		return Statement{}, err
	}
	coll, err := p.ident("collection")
	if err != nil {
		return Statement{}, err
	}
	args := &SelectArgs{}
	if strings.EqualFold(p.peek(), "WHERE") {
		p.next()
		field, err := p.ident("field")
		if err != nil {
			return Statement{}, err
		}
		if err := p.expect("="); err != nil {
			return Statement{}, err
		}
		value, err := p.operand()
		if err != nil {
			return Statement{}, err
		}
		args.Where = &Condition{Field: field, Value: value}
	}
	if strings.EqualFold(p.peek(), "ORDER") {
		p.next()
		if err := p.expect("BY"); err != nil {
			return Statement{}, err
		}
		field, err := p.ident("order field")
		if err != nil {
			return Statement{}, err
		}
		args.OrderBy = field
	}
	if err := p.done(); err != nil {
		return Statement{}, err
	}
	return Statement{Kind: KindSelect, Raw: raw, Collection: coll, Select: args}, nil
}

func (p *parser) parseInsert(raw string) (Statement, error) {
	if err := p.expect("INSERT", "INTO"); err != nil {
		return Statement{}, err
	}
	coll, err := p.ident("collection")
	if err != nil {
		return Statement{}, err
	}
	if err := p.expect("DOCUMENTS", "("); err != nil {
		return Statement{}, err
	}
	doc, err := p.operand()
	if err != nil {
		return Statement{}, err
	}
	if doc.Param == "" {
		return Statement{}, &StatementError{Code: ErrCodeInvalidArgument, Message: "insert requires a :document parameter"}
	}
	if err := p.expect(")"); err != nil {
		return Statement{}, err
	}
	if err := p.done(); err != nil {
		return Statement{}, err
	}
	return Statement{Kind: KindInsert, Raw: raw, Collection: coll, Insert: &InsertArgs{Document: doc}}, nil
}

func (p *parser) parseUpdate(raw string) (Statement, error) {
	if err := p.expect("UPDATE"); err != nil {
		return Statement{}, err
	}
	coll, err := p.ident("collection")
	if err != nil {
		return Statement{}, err
	}
	if err := p.expect("SET"); err != nil {
		return Statement{}, err
	}
	field, err := p.ident("field")
	if err != nil {
		return Statement{}, err
	}
	if field == "_id" {
		return Statement{}, &StatementError{Code: ErrCodeInvalidArgument, Message: "_id cannot be updated"}
	}
	if err := p.expect("="); err != nil {
		return Statement{}, err
	}
	value, err := p.operand()
	if err != nil {
		return Statement{}, err
	}
	if err := p.expect("WHERE", "_id", "="); err != nil {
		return Statement{}, err
	}
	id, err := p.operand()
	if err != nil {
		return Statement{}, err
	}
	if err := p.done(); err != nil {
		return Statement{}, err
	}
	return Statement{
		Kind:       KindUpdate,
		Raw:        raw,
		Collection: coll,
		Update:     &UpdateArgs{Field: field, Value: value, ID: id},
	}, nil
}

func tokenize(s string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	inQuote := false
	for _, r := range s {
		switch {
		case inQuote:
			cur.WriteRune(r)
			if r == '\'' {
				inQuote = false
				flush()
			}
		case r == '\'':
			flush()
			inQuote = true
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		case r == '=' || r == '(' || r == ')' || r == ',':
			flush()
			out = append(out, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
