// Package parser consumes source bytes and produces a
// WithMeta[ast.Expr] tree with a fresh NodeId and span on every node.
// The surface grammar is the fully-prefix minimalist notation of the
// language: `$` let, `!` perform, `!~` continue, `&`/`^`
// reference/apply, `*<>`/`+<>` product and sum, `\ -> ` functions,
// `'match`/`'handle`/`'brand`/`'type` keyword forms. The parser holds
// a curToken/peekToken pair over the scanner and dedicates one parse
// function to each production.
package parser

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/corec-lang/corec/internal/ast"
	"github.com/corec-lang/corec/internal/dson"
	"github.com/corec-lang/corec/internal/ident"
	"github.com/google/uuid"
)

// Error is a parse failure with its source position.
type Error struct {
	Pos ident.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// letBinding maps a `$ name = def` binder to the NodeId of its
// definition, so references to the name lower to LinkName-carrying
// Apply nodes the checker resolves by node id. A nil entry shadows an
// outer binding (a lambda parameter of the same name).
type letBinding struct {
	name string
	id   *uuid.UUID
}

// Parser turns a token stream into an AST.
type Parser struct {
	lex       *Lexer
	curToken  Token
	peekToken Token
	lets      []letBinding
}

// Parse consumes source text and returns the annotated AST, with a
// fresh NodeId and span on every node.
func Parse(src string) (ast.Node, error) {
	p := &Parser{lex: NewLexer(src)}
	p.nextToken()
	p.nextToken()
	node, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	if p.curToken.Type != EOF {
		return ast.Node{}, p.errf("unexpected trailing token %q", p.curToken.Lexeme)
	}
	return node, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.NextToken()
}

func (p *Parser) curIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t TokenType, what string) error {
	if !p.curIs(t) {
		return p.errf("expected %s, found %q", what, p.curToken.Lexeme)
	}
	p.nextToken()
	return nil
}

func (p *Parser) errf(format string, args ...any) error {
	return &Error{Pos: p.curToken.Start, Msg: fmt.Sprintf(format, args...)}
}

// meta mints a node's metadata from its opening token: fresh NodeId,
// the token's span, and any comments lexed immediately before it.
func meta(tok Token) ident.Meta {
	m := ident.NewMeta(tok.span())
	m.Comments.Before = tok.Leading
	return m
}

func (p *Parser) pushLet(name string, id *uuid.UUID) {
	p.lets = append(p.lets, letBinding{name: name, id: id})
}

func (p *Parser) popLet() { p.lets = p.lets[:len(p.lets)-1] }

func (p *Parser) lookupLet(name string) *uuid.UUID {
	for i := len(p.lets) - 1; i >= 0; i-- {
		if p.lets[i].name == name {
			return p.lets[i].id
		}
	}
	return nil
}

// --- expressions ---

func (p *Parser) parseExpr() (ast.Node, error) {
	tok := p.curToken
	switch tok.Type {
	case INT:
		return p.parseNumber()
	case REAL:
		r, err := parseReal(tok.Lexeme)
		if err != nil {
			return ast.Node{}, p.errf("bad real literal %q", tok.Lexeme)
		}
		p.nextToken()
		return ast.Node{Value: ast.Literal{Value: dson.Real(r)}, Meta: meta(tok)}, nil
	case STRING:
		p.nextToken()
		return ast.Node{Value: ast.Literal{Value: dson.Str(tok.Lexeme)}, Meta: meta(tok)}, nil
	case HOLE:
		p.nextToken()
		return ast.Node{Value: ast.Hole{}, Meta: meta(tok)}, nil
	case DOLLAR:
		return p.parseLet(tok)
	case BANG:
		return p.parsePerform(tok)
	case CONTINUE:
		return p.parseContinue(tok)
	case KWHANDLE:
		return p.parseHandle(tok)
	case CARET:
		return p.parseApply(tok)
	case AMP:
		return p.parseReference(tok)
	case PRODUCT:
		return p.parseProduct(tok)
	case LBRACKET:
		return p.parseVector(tok)
	case LBRACE:
		return p.parseMap(tok)
	case LAMBDA:
		return p.parseFunction(tok)
	case KWMATCH:
		return p.parseMatch(tok)
	case COLON:
		return p.parseTyped(tok)
	case HASH:
		return p.parseAttributed(tok)
	case AT:
		return p.parseLabel(tok)
	case KWBRAND:
		return p.parseBrand(tok)
	case KWTYPE:
		return p.parseNewType(tok)
	case KWCARD:
		return p.parseCard(tok)
	case LPAREN:
		p.nextToken()
		e, err := p.parseExpr()
		if err != nil {
			return ast.Node{}, err
		}
		if err := p.expect(RPAREN, ")"); err != nil {
			return ast.Node{}, err
		}
		return e, nil
	default:
		return ast.Node{}, p.errf("unexpected token %q at expression start", tok.Lexeme)
	}
}

// parseNumber handles integer and rational (`1/2`) literals.
func (p *Parser) parseNumber() (ast.Node, error) {
	tok := p.curToken
	n, ok := new(big.Int).SetString(tok.Lexeme, 10)
	if !ok {
		return ast.Node{}, p.errf("bad integer literal %q", tok.Lexeme)
	}
	p.nextToken()
	if p.curIs(SLASH) && p.peekIs(INT) {
		p.nextToken()
		d, ok := new(big.Int).SetString(p.curToken.Lexeme, 10)
		if !ok {
			return ast.Node{}, p.errf("bad rational denominator %q", p.curToken.Lexeme)
		}
		p.nextToken()
		lit := dson.Literal{Kind: dson.KindRational, RatNum: n, RatDenom: d}
		return ast.Node{Value: ast.Literal{Value: lit}, Meta: meta(tok)}, nil
	}
	lit := dson.Literal{Kind: dson.KindInteger, Int: n}
	return ast.Node{Value: ast.Literal{Value: lit}, Meta: meta(tok)}, nil
}

func parseReal(s string) (float64, error) {
	var v float64
	_, err := fmt.Sscanf(s, "%g", &v)
	return v, err
}

// parseLet parses `$ def; body` and the named form `$ name = def;
// body`. A named binding is pure parser-level sugar: the definition's
// NodeId is recorded, and every `& name` reference in the body becomes
// an Apply carrying LinkName{Card, defId}, which the checker resolves
// against the Let's own TypedVariable entry (the HIR Let itself stays
// nameless, per the surface grammar).
func (p *Parser) parseLet(tok Token) (ast.Node, error) {
	p.nextToken()
	var name string
	if p.curIs(IDENT) && p.peekIs(ASSIGN) {
		name = p.curToken.Lexeme
		p.nextToken()
		p.nextToken()
	}
	def, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(SEMICOLON, ";"); err != nil {
		return ast.Node{}, err
	}
	if name != "" {
		id := uuid.UUID(def.Meta.ID)
		p.pushLet(name, &id)
		defer p.popLet()
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Let{Definition: def, Body: body}, Meta: meta(tok)}, nil
}

func (p *Parser) parsePerform(tok Token) (ast.Node, error) {
	p.nextToken()
	input, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(EARROW, "~>"); err != nil {
		return ast.Node{}, err
	}
	out, err := p.parseTy()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Perform{Input: input, Output: out}, Meta: meta(tok)}, nil
}

func (p *Parser) parseContinue(tok Token) (ast.Node, error) {
	p.nextToken()
	input, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(EARROW, "~>"); err != nil {
		return ast.Node{}, err
	}
	out, err := p.parseTy()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Continue{Input: input, Output: out}, Meta: meta(tok)}, nil
}

// parseHandle parses `'handle expr { ty ~> ty => expr, ... }`.
func (p *Parser) parseHandle(tok Token) (ast.Node, error) {
	p.nextToken()
	expr, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(LBRACE, "{"); err != nil {
		return ast.Node{}, err
	}
	var handlers []ast.Handler
	for {
		in, err := p.parseTy()
		if err != nil {
			return ast.Node{}, err
		}
		if err := p.expect(EARROW, "~>"); err != nil {
			return ast.Node{}, err
		}
		out, err := p.parseTy()
		if err != nil {
			return ast.Node{}, err
		}
		if err := p.expect(FATARROW, "=>"); err != nil {
			return ast.Node{}, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return ast.Node{}, err
		}
		handlers = append(handlers, ast.Handler{EffectInput: in, EffectOutput: out, Handler: body})
		if !p.curIs(COMMA) {
			break
		}
		p.nextToken()
	}
	if err := p.expect(RBRACE, "}"); err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Handle{Expr: expr, Handlers: handlers}, Meta: meta(tok)}, nil
}

// parseApply parses `^ ty linkname? ( arg, ... )`.
func (p *Parser) parseApply(tok Token) (ast.Node, error) {
	p.nextToken()
	fn, err := p.parseTy()
	if err != nil {
		return ast.Node{}, err
	}
	link, err := p.parseLinkName(fn)
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(LPAREN, "("); err != nil {
		return ast.Node{}, err
	}
	var args []ast.Node
	if !p.curIs(RPAREN) {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return ast.Node{}, err
			}
			args = append(args, a)
			if !p.curIs(COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if err := p.expect(RPAREN, ")"); err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Apply{Function: fn, LinkName: link, Arguments: args}, Meta: meta(tok)}, nil
}

// parseReference parses `& ty linkname?`, a zero-argument Apply.
func (p *Parser) parseReference(tok Token) (ast.Node, error) {
	p.nextToken()
	fn, err := p.parseTy()
	if err != nil {
		return ast.Node{}, err
	}
	link, err := p.parseLinkName(fn)
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Apply{Function: fn, LinkName: link, Arguments: nil}, Meta: meta(tok)}, nil
}

// parseLinkName parses an optional `'card "uuid"` / `'version "uuid"`
// suffix; absent both, a reference to a `$ name =`-bound definition
// gets a Card link to that definition's node id (the named-let sugar).
func (p *Parser) parseLinkName(fn ast.TyNode) (ast.LinkName, error) {
	switch p.curToken.Type {
	case KWCARD, KWVERSION:
		kind := ast.LinkCard
		if p.curIs(KWVERSION) {
			kind = ast.LinkVersion
		}
		p.nextToken()
		if !p.curIs(STRING) {
			return ast.LinkName{}, p.errf("expected uuid string after link keyword")
		}
		id, err := uuid.Parse(p.curToken.Lexeme)
		if err != nil {
			return ast.LinkName{}, p.errf("bad uuid %q", p.curToken.Lexeme)
		}
		p.nextToken()
		return ast.LinkName{Kind: kind, UUID: id}, nil
	}
	if v, ok := fn.Value.(ast.Variable); ok {
		if id := p.lookupLet(v.Name); id != nil {
			return ast.LinkName{Kind: ast.LinkCard, UUID: *id}, nil
		}
	}
	return ast.LinkName{}, nil
}

func (p *Parser) parseProduct(tok Token) (ast.Node, error) {
	p.nextToken()
	var elems []ast.Node
	if !p.curIs(GT) {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return ast.Node{}, err
			}
			elems = append(elems, e)
			if !p.curIs(COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if err := p.expect(GT, ">"); err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Product{Elems: elems}, Meta: meta(tok)}, nil
}

func (p *Parser) parseVector(tok Token) (ast.Node, error) {
	p.nextToken()
	var elems []ast.Node
	if !p.curIs(RBRACKET) {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return ast.Node{}, err
			}
			elems = append(elems, e)
			if !p.curIs(COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if err := p.expect(RBRACKET, "]"); err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Vector{Elems: elems}, Meta: meta(tok)}, nil
}

func (p *Parser) parseMap(tok Token) (ast.Node, error) {
	p.nextToken()
	var entries []ast.MapEntry
	if !p.curIs(RBRACE) {
		for {
			k, err := p.parseExpr()
			if err != nil {
				return ast.Node{}, err
			}
			if err := p.expect(FATARROW, "=>"); err != nil {
				return ast.Node{}, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return ast.Node{}, err
			}
			entries = append(entries, ast.MapEntry{Key: k, Value: v})
			if !p.curIs(COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if err := p.expect(RBRACE, "}"); err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Map{Entries: entries}, Meta: meta(tok)}, nil
}

// parseFunction parses `\ ty, ty -> body`. A bare-name parameter
// shadows any same-named `$ name =` binding in the body.
func (p *Parser) parseFunction(tok Token) (ast.Node, error) {
	p.nextToken()
	var params []ast.TyNode
	for {
		t, err := p.parseTy()
		if err != nil {
			return ast.Node{}, err
		}
		params = append(params, t)
		if !p.curIs(COMMA) {
			break
		}
		p.nextToken()
	}
	if err := p.expect(ARROW, "->"); err != nil {
		return ast.Node{}, err
	}
	shadowed := 0
	for _, param := range params {
		if v, ok := param.Value.(ast.Variable); ok {
			p.pushLet(v.Name, nil)
			shadowed++
		}
	}
	body, err := p.parseExpr()
	for i := 0; i < shadowed; i++ {
		p.popLet()
	}
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Function{Parameters: params, Body: body}, Meta: meta(tok)}, nil
}

func (p *Parser) parseMatch(tok Token) (ast.Node, error) {
	p.nextToken()
	of, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(LBRACE, "{"); err != nil {
		return ast.Node{}, err
	}
	var cases []ast.MatchCase
	for {
		ty, err := p.parseTy()
		if err != nil {
			return ast.Node{}, err
		}
		if err := p.expect(FATARROW, "=>"); err != nil {
			return ast.Node{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return ast.Node{}, err
		}
		cases = append(cases, ast.MatchCase{Ty: ty, Expr: e})
		if !p.curIs(COMMA) {
			break
		}
		p.nextToken()
	}
	if err := p.expect(RBRACE, "}"); err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Match{Of: of, Cases: cases}, Meta: meta(tok)}, nil
}

func (p *Parser) parseTyped(tok Token) (ast.Node, error) {
	p.nextToken()
	ty, err := p.parseTy()
	if err != nil {
		return ast.Node{}, err
	}
	item, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Typed{Ty: ty, Item: item}, Meta: meta(tok)}, nil
}

func (p *Parser) parseAttributed(tok Token) (ast.Node, error) {
	p.nextToken()
	attr, err := p.parseDson()
	if err != nil {
		return ast.Node{}, err
	}
	item, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Attributed{Attr: attr, Item: item}, Meta: meta(tok)}, nil
}

func (p *Parser) parseLabel(tok Token) (ast.Node, error) {
	p.nextToken()
	label, err := p.parseDson()
	if err != nil {
		return ast.Node{}, err
	}
	item, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Label{Label: label, Item: item}, Meta: meta(tok)}, nil
}

func (p *Parser) parseBrand(tok Token) (ast.Node, error) {
	p.nextToken()
	brand, err := p.parseDson()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(SEMICOLON, ";"); err != nil {
		return ast.Node{}, err
	}
	item, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.DeclareBrand{Brand: brand, Item: item}, Meta: meta(tok)}, nil
}

// parseNewType parses `'type ident ty; expr`. Multi-word idents are
// joined with single spaces, the way the surface syntax treats any
// whitespace run inside an identifier as one separator.
func (p *Parser) parseNewType(tok Token) (ast.Node, error) {
	p.nextToken()
	var words []string
	for p.curIs(IDENT) {
		words = append(words, p.curToken.Lexeme)
		p.nextToken()
	}
	if len(words) == 0 {
		return ast.Node{}, p.errf("expected identifier after 'type")
	}
	ty, err := p.parseTy()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(SEMICOLON, ";"); err != nil {
		return ast.Node{}, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.NewType{Ident: strings.Join(words, " "), Ty: ty, Expr: expr}, Meta: meta(tok)}, nil
}

// parseCard parses `'card "uuid" item; next`.
func (p *Parser) parseCard(tok Token) (ast.Node, error) {
	p.nextToken()
	if !p.curIs(STRING) {
		return ast.Node{}, p.errf("expected uuid string after 'card")
	}
	id, err := uuid.Parse(p.curToken.Lexeme)
	if err != nil {
		return ast.Node{}, p.errf("bad uuid %q", p.curToken.Lexeme)
	}
	p.nextToken()
	item, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expect(SEMICOLON, ";"); err != nil {
		return ast.Node{}, err
	}
	next, err := p.parseExpr()
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Value: ast.Card{ID: id, Item: item, Next: next}, Meta: meta(tok)}, nil
}

// --- structured data values ---

// parseDson parses the structured-value sublanguage used in label,
// brand, and attribute position: literals, products, vectors, maps,
// and `@label` wrappers. A bare identifier reads as its string
// literal, so `@added 1` and `@"added" 1` denote the same label.
func (p *Parser) parseDson() (dson.Dson, error) {
	tok := p.curToken
	switch tok.Type {
	case INT:
		n, ok := new(big.Int).SetString(tok.Lexeme, 10)
		if !ok {
			return nil, p.errf("bad integer literal %q", tok.Lexeme)
		}
		p.nextToken()
		if p.curIs(SLASH) && p.peekIs(INT) {
			p.nextToken()
			d, ok := new(big.Int).SetString(p.curToken.Lexeme, 10)
			if !ok {
				return nil, p.errf("bad rational denominator %q", p.curToken.Lexeme)
			}
			p.nextToken()
			return dson.Literal{Kind: dson.KindRational, RatNum: n, RatDenom: d}, nil
		}
		return dson.Literal{Kind: dson.KindInteger, Int: n}, nil
	case REAL:
		r, err := parseReal(tok.Lexeme)
		if err != nil {
			return nil, p.errf("bad real literal %q", tok.Lexeme)
		}
		p.nextToken()
		return dson.Real(r), nil
	case STRING:
		p.nextToken()
		return dson.Str(tok.Lexeme), nil
	case IDENT:
		p.nextToken()
		return dson.Str(tok.Lexeme), nil
	case PRODUCT:
		p.nextToken()
		var elems []dson.Dson
		if !p.curIs(GT) {
			for {
				e, err := p.parseDson()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if !p.curIs(COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if err := p.expect(GT, ">"); err != nil {
			return nil, err
		}
		return dson.Product{Elems: elems}, nil
	case LBRACKET:
		p.nextToken()
		var elems []dson.Dson
		if !p.curIs(RBRACKET) {
			for {
				e, err := p.parseDson()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if !p.curIs(COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if err := p.expect(RBRACKET, "]"); err != nil {
			return nil, err
		}
		return dson.Vector{Elems: elems}, nil
	case LBRACE:
		p.nextToken()
		var entries []dson.MapEntry
		if !p.curIs(RBRACE) {
			for {
				k, err := p.parseDson()
				if err != nil {
					return nil, err
				}
				if err := p.expect(FATARROW, "=>"); err != nil {
					return nil, err
				}
				v, err := p.parseDson()
				if err != nil {
					return nil, err
				}
				entries = append(entries, dson.MapEntry{Key: k, Value: v})
				if !p.curIs(COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if err := p.expect(RBRACE, "}"); err != nil {
			return nil, err
		}
		return dson.Map{Entries: entries}, nil
	case AT:
		p.nextToken()
		if !p.curIs(IDENT) && !p.curIs(STRING) {
			return nil, p.errf("expected label name after @")
		}
		label := p.curToken.Lexeme
		p.nextToken()
		expr, err := p.parseDson()
		if err != nil {
			return nil, err
		}
		return dson.Labeled{Label: label, Expr: expr}, nil
	default:
		return nil, p.errf("unexpected token %q in data value", tok.Lexeme)
	}
}
