package parser

import (
	"github.com/corec-lang/corec/internal/ast"
)

// parseTy parses the surface type sublanguage:
// `'integer`-style primitives, `_` infer, `'this`, `*<>`/`+<>`
// product and sum, `[ty]` vector, `{ty => ty}` map, `\ ty -> ty`
// function, `%<>` trait, `! ty effects` effectful, `@dson ty` label,
// `$ x ty; ty` type-let, `'forall`/`'exists` quantifiers, bare
// identifiers as variables, and parenthesized grouping.
func (p *Parser) parseTy() (ast.TyNode, error) {
	tok := p.curToken
	switch tok.Type {
	case KWINTEGER:
		p.nextToken()
		return ast.TyNode{Value: ast.Integer{}, Meta: meta(tok)}, nil
	case KWRATIONAL:
		p.nextToken()
		return ast.TyNode{Value: ast.Rational{}, Meta: meta(tok)}, nil
	case KWREAL:
		p.nextToken()
		return ast.TyNode{Value: ast.Real{}, Meta: meta(tok)}, nil
	case KWSTRING:
		p.nextToken()
		return ast.TyNode{Value: ast.String{}, Meta: meta(tok)}, nil
	case UNDERSCORE:
		p.nextToken()
		return ast.TyNode{Value: ast.Infer{}, Meta: meta(tok)}, nil
	case KWTHIS:
		p.nextToken()
		return ast.TyNode{Value: ast.This{}, Meta: meta(tok)}, nil
	case PRODUCT:
		p.nextToken()
		elems, err := p.parseTyList(GT, ">")
		if err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TyProduct{Elems: elems}, Meta: meta(tok)}, nil
	case SUM:
		p.nextToken()
		elems, err := p.parseTyList(GT, ">")
		if err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TySum{Elems: elems}, Meta: meta(tok)}, nil
	case LBRACKET:
		p.nextToken()
		elem, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		if err := p.expect(RBRACKET, "]"); err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TyVector{Elem: elem}, Meta: meta(tok)}, nil
	case LBRACE:
		p.nextToken()
		key, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		if err := p.expect(FATARROW, "=>"); err != nil {
			return ast.TyNode{}, err
		}
		value, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		if err := p.expect(RBRACE, "}"); err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TyMap{Key: key, Value: value}, Meta: meta(tok)}, nil
	case LAMBDA:
		p.nextToken()
		param, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		if err := p.expect(ARROW, "->"); err != nil {
			return ast.TyNode{}, err
		}
		body, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TyFunction{Parameter: param, Body: body}, Meta: meta(tok)}, nil
	case TRAIT:
		p.nextToken()
		var fns []ast.TyFunction
		if !p.curIs(GT) {
			for {
				if err := p.expect(LAMBDA, `\`); err != nil {
					return ast.TyNode{}, err
				}
				param, err := p.parseTy()
				if err != nil {
					return ast.TyNode{}, err
				}
				if err := p.expect(ARROW, "->"); err != nil {
					return ast.TyNode{}, err
				}
				body, err := p.parseTy()
				if err != nil {
					return ast.TyNode{}, err
				}
				fns = append(fns, ast.TyFunction{Parameter: param, Body: body})
				if !p.curIs(COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if err := p.expect(GT, ">"); err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.Trait{Functions: fns}, Meta: meta(tok)}, nil
	case BANG:
		p.nextToken()
		inner, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		eff, err := p.parseEffectExpr()
		if err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.Effectful{Ty: inner, Effects: eff}, Meta: meta(tok)}, nil
	case IDENT:
		p.nextToken()
		return ast.TyNode{Value: ast.Variable{Name: tok.Lexeme}, Meta: meta(tok)}, nil
	case AT:
		p.nextToken()
		label, err := p.parseDson()
		if err != nil {
			return ast.TyNode{}, err
		}
		item, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TyLabeled{Brand: label, Item: item}, Meta: meta(tok)}, nil
	case HASH:
		p.nextToken()
		attr, err := p.parseDson()
		if err != nil {
			return ast.TyNode{}, err
		}
		item, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TyAttributed{Attr: attr, Ty: item}, Meta: meta(tok)}, nil
	case DOLLAR:
		p.nextToken()
		if !p.curIs(IDENT) {
			return ast.TyNode{}, p.errf("expected identifier after $ in type position")
		}
		name := p.curToken.Lexeme
		p.nextToken()
		def, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		if err := p.expect(SEMICOLON, ";"); err != nil {
			return ast.TyNode{}, err
		}
		body, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		return ast.TyNode{Value: ast.TyLet{Variable: name, Definition: def, Body: body}, Meta: meta(tok)}, nil
	case KWFORALL, KWEXISTS:
		return p.parseQuantifier(tok)
	case LPAREN:
		p.nextToken()
		ty, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		if err := p.expect(RPAREN, ")"); err != nil {
			return ast.TyNode{}, err
		}
		return ty, nil
	default:
		return ast.TyNode{}, p.errf("unexpected token %q at type start", tok.Lexeme)
	}
}

// parseQuantifier parses `'forall a. ty` and the bounded form
// `'forall a: bound. ty` (same for 'exists).
func (p *Parser) parseQuantifier(tok Token) (ast.TyNode, error) {
	p.nextToken()
	if !p.curIs(IDENT) {
		return ast.TyNode{}, p.errf("expected type variable after quantifier")
	}
	name := p.curToken.Lexeme
	p.nextToken()
	var bound *ast.TyNode
	if p.curIs(COLON) {
		p.nextToken()
		b, err := p.parseTy()
		if err != nil {
			return ast.TyNode{}, err
		}
		bound = &b
	}
	if err := p.expect(DOT, "."); err != nil {
		return ast.TyNode{}, err
	}
	body, err := p.parseTy()
	if err != nil {
		return ast.TyNode{}, err
	}
	if tok.Type == KWFORALL {
		return ast.TyNode{Value: ast.Forall{Variable: name, Bound: bound, Body: body}, Meta: meta(tok)}, nil
	}
	return ast.TyNode{Value: ast.Exists{Variable: name, Bound: bound, Body: body}, Meta: meta(tok)}, nil
}

func (p *Parser) parseTyList(end TokenType, endName string) ([]ast.TyNode, error) {
	var elems []ast.TyNode
	if !p.curIs(end) {
		for {
			t, err := p.parseTy()
			if err != nil {
				return nil, err
			}
			elems = append(elems, t)
			if !p.curIs(COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if err := p.expect(end, endName); err != nil {
		return nil, err
	}
	return elems, nil
}

// parseEffectExpr parses the effect-row sublanguage: `{ty ~> ty, ...}`
// effects, `+<eff, ...>` add, `- eff eff` sub, `^ty(ty, ...)` apply.
func (p *Parser) parseEffectExpr() (ast.EffectExpr, error) {
	tok := p.curToken
	switch tok.Type {
	case LBRACE:
		p.nextToken()
		var sigs []ast.EffectSig
		if !p.curIs(RBRACE) {
			for {
				in, err := p.parseTy()
				if err != nil {
					return nil, err
				}
				if err := p.expect(EARROW, "~>"); err != nil {
					return nil, err
				}
				out, err := p.parseTy()
				if err != nil {
					return nil, err
				}
				sigs = append(sigs, ast.EffectSig{Input: in, Output: out})
				if !p.curIs(COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if err := p.expect(RBRACE, "}"); err != nil {
			return nil, err
		}
		return ast.Effects{Sigs: sigs}, nil
	case SUM:
		p.nextToken()
		var terms []ast.EffectExpr
		if !p.curIs(GT) {
			for {
				t, err := p.parseEffectExpr()
				if err != nil {
					return nil, err
				}
				terms = append(terms, t)
				if !p.curIs(COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if err := p.expect(GT, ">"); err != nil {
			return nil, err
		}
		return ast.Add{Terms: terms}, nil
	case MINUS:
		p.nextToken()
		minuend, err := p.parseEffectExpr()
		if err != nil {
			return nil, err
		}
		subtrahend, err := p.parseEffectExpr()
		if err != nil {
			return nil, err
		}
		return ast.Sub{Minuend: minuend, Subtrahend: subtrahend}, nil
	case CARET:
		p.nextToken()
		fn, err := p.parseTy()
		if err != nil {
			return nil, err
		}
		if err := p.expect(LPAREN, "("); err != nil {
			return nil, err
		}
		var args []ast.TyNode
		if !p.curIs(RPAREN) {
			for {
				a, err := p.parseTy()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.curIs(COMMA) {
					break
				}
				p.nextToken()
			}
		}
		if err := p.expect(RPAREN, ")"); err != nil {
			return nil, err
		}
		return ast.EffectApply{Function: fn, Arguments: args}, nil
	default:
		return nil, p.errf("unexpected token %q at effect expression start", tok.Lexeme)
	}
}
