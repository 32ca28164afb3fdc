package parser

import (
	"fmt"

	"github.com/corec-lang/corec/internal/ident"
)

// TokenType discriminates lexed tokens.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	// Literals and names.
	INT    // 123
	REAL   // 1.5
	STRING // "a"
	IDENT  // x, add

	// Punctuation.
	HOLE      // ?
	DOLLAR    // $  (let / type-let)
	SEMICOLON // ;
	BANG      // !  (perform / effectful type)
	CONTINUE  // !~
	EARROW    // ~>
	ARROW     // ->
	FATARROW  // =>
	ASSIGN    // =  (named let binding)
	LAMBDA    // \
	AMP       // &  (reference)
	CARET     // ^  (apply)
	LPAREN    // (
	RPAREN    // )
	PRODUCT   // *<
	SUM       // +<
	TRAIT     // %<
	GT        // >  (closes *< +< %<)
	LBRACKET  // [
	RBRACKET  // ]
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	COLON     // :  (typed expression, forall bound)
	AT        // @  (label)
	HASH      // #  (attribute)
	UNDERSCORE // _ (infer)
	DOT       // .  (quantifier body separator)
	MINUS     // -  (effect subtraction)
	SLASH     // /  (rational literal)

	// Keywords, all spelled with a leading apostrophe as in
	// `'integer` or `'match`.
	KWINTEGER
	KWRATIONAL
	KWREAL
	KWSTRING
	KWTHIS
	KWFORALL
	KWEXISTS
	KWTYPE
	KWBRAND
	KWMATCH
	KWHANDLE
	KWCARD
	KWVERSION
)

var keywords = map[string]TokenType{
	"integer":  KWINTEGER,
	"rational": KWRATIONAL,
	"real":     KWREAL,
	"string":   KWSTRING,
	"this":     KWTHIS,
	"forall":   KWFORALL,
	"exists":   KWEXISTS,
	"type":     KWTYPE,
	"brand":    KWBRAND,
	"match":    KWMATCH,
	"handle":   KWHANDLE,
	"card":     KWCARD,
	"version":  KWVERSION,
}

// Token is one lexed token with its source position.
type Token struct {
	Type    TokenType
	Lexeme  string
	Start   ident.Pos
	End     ident.Pos
	// Comments lexed immediately before this token, in source order.
	// The parser folds them into the next node's Meta.
	Leading []ident.Comment
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d %q", t.Start.Line, t.Start.Column, t.Lexeme)
}

func (t Token) span() ident.Span { return ident.Span{Start: t.Start, End: t.End} }
