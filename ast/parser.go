// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"strconv"

	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/lex"
	"github.com/weft-lang/weft/token"
)

// Parse tokenizes and parses a full WEFT source file into a Program
// (spec.md §4.2). file is used only for location reporting.
func Parse(source, file string) (*Program, *errs.Error) {
	toks, err := lex.Tokenize(source, file)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

// ParseExpr parses a single expression, used by tooling (spec.md §6.4).
func ParseExpr(source string) (Expr, *errs.Error) {
	toks, err := lex.Tokenize(source, "")
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseChain()
	if err != nil {
		return nil, err
	}
	if !p.at(token.EOF) {
		return nil, errs.New(errs.ParseErr, p.cur().Loc, "unexpected trailing token %v", p.cur().Kind)
	}
	return e, nil
}

type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k token.Kind) (token.Token, *errs.Error) {
	if p.at(k) {
		return p.advance(), nil
	}
	return token.Token{}, errs.New(errs.ParseErr, p.cur().Loc, "expected %v, got %v", k, p.cur().Kind)
}

func (p *parser) parseProgram() (*Program, *errs.Error) {
	prog := &Program{}
	for !p.at(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *parser) parseStatement() (Statement, *errs.Error) {
	switch p.cur().Kind {
	case token.SPINDLE:
		return p.parseSpindleDef()
	case token.IDENT:
		return p.parseBundleDecl()
	default:
		return nil, errs.New(errs.ParseErr, p.cur().Loc, "expected a bundle declaration or spindle definition, got %v", p.cur().Kind)
	}
}

func (p *parser) parseBundleDecl() (*BundleDecl, *errs.Error) {
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &BundleDecl{Name: nameTok.Text, Loc: nameTok.Loc}

	switch {
	case p.at(token.LBRACKET):
		p.advance()
		for !p.at(token.RBRACKET) {
			out, err := p.parseOutput()
			if err != nil {
				return nil, err
			}
			decl.Outputs = append(decl.Outputs, out)
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
	case p.at(token.DOT):
		p.advance()
		strandTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		decl.Outputs = []Output{{Name: strandTok.Text}}
	default:
		return nil, errs.New(errs.ParseErr, p.cur().Loc, "expected '[' or '.' after bundle name, got %v", p.cur().Kind)
	}

	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	expr, err := p.parseChain()
	if err != nil {
		return nil, err
	}
	decl.Expr = expr
	return decl, nil
}

func (p *parser) parseOutput() (Output, *errs.Error) {
	tok := p.cur()
	switch tok.Kind {
	case token.IDENT:
		p.advance()
		return Output{Name: tok.Text}, nil
	case token.NUMBER:
		p.advance()
		n, _ := strconv.Atoi(tok.Text)
		return Output{HasIx: true, Index: n}, nil
	default:
		return Output{}, errs.New(errs.ParseErr, tok.Loc, "expected output name or index, got %v", tok.Kind)
	}
}

func (p *parser) parseSpindleDef() (*SpindleDef, *errs.Error) {
	kwTok, err := p.expect(token.SPINDLE)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	def := &SpindleDef{Name: nameTok.Text, Loc: kwTok.Loc}

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	for !p.at(token.RPAREN) {
		pt, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		def.Params = append(def.Params, pt.Text)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	for !p.at(token.RBRACE) {
		if p.at(token.RETURN) {
			retTok := p.advance()
			if _, err := p.expect(token.DOT); err != nil {
				return nil, err
			}
			idxTok, err := p.expect(token.NUMBER)
			if err != nil {
				return nil, err
			}
			idx, _ := strconv.Atoi(idxTok.Text)
			if _, err := p.expect(token.ASSIGN); err != nil {
				return nil, err
			}
			expr, err := p.parseChain()
			if err != nil {
				return nil, err
			}
			def.Returns = append(def.Returns, &ReturnStmt{Index: idx, Expr: expr, Loc: retTok.Loc})
			continue
		}
		local, err := p.parseBundleDecl()
		if err != nil {
			return nil, err
		}
		def.Locals = append(def.Locals, local)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return def, nil
}

// --- expression grammar ---
// chain (->) > comparison > add > mul > range > expo (right-assoc) > unary > postfix > primary

func (p *parser) parseChain() (Expr, *errs.Error) {
	base, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if !p.at(token.ARROW) {
		return base, nil
	}
	loc := base.Location()
	chain := &ChainExpr{exprBase: exprBase{loc}, Base: base}
	for p.at(token.ARROW) {
		p.advance()
		stage, err := p.parseChainStage()
		if err != nil {
			return nil, err
		}
		chain.Stages = append(chain.Stages, stage)
	}
	return chain, nil
}

func (p *parser) parseChainStage() (ChainStage, *errs.Error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return ChainStage{}, err
	}
	var stage ChainStage
	for !p.at(token.RBRACE) {
		e, err := p.parseChain()
		if err != nil {
			return ChainStage{}, err
		}
		stage.Outputs = append(stage.Outputs, e)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return ChainStage{}, err
	}
	return stage, nil
}

var comparisonOps = map[token.Kind]string{
	token.EQ: "==", token.NEQ: "!=", token.LT: "<", token.GT: ">",
	token.LE: "<=", token.GE: ">=", token.AND: "&&", token.OR: "||",
}

func (p *parser) parseComparison() (Expr, *errs.Error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.cur().Kind]
		if !ok {
			return left, nil
		}
		loc := p.cur().Loc
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{exprBase{loc}, op, left, right}
	}
}

func (p *parser) parseAdd() (Expr, *errs.Error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := p.cur()
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{exprBase{op.Loc}, op.Text, left, right}
	}
	return left, nil
}

func (p *parser) parseMul() (Expr, *errs.Error) {
	left, err := p.parseRangeOrExpo()
	if err != nil {
		return nil, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PERCENT) {
		op := p.cur()
		p.advance()
		right, err := p.parseRangeOrExpo()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{exprBase{op.Loc}, op.Text, left, right}
	}
	return left, nil
}

// parseRangeOrExpo recognizes range literals `a..b` (spec.md §3.1, §4.3.2)
// wrapping the expo/unary/postfix/primary chain; either endpoint may be
// omitted or negative.
func (p *parser) parseRangeOrExpo() (Expr, *errs.Error) {
	loc := p.cur().Loc
	if p.at(token.DOTDOT) {
		p.advance()
		hi, err := p.parseOptionalRangeEndpoint()
		if err != nil {
			return nil, err
		}
		return &RangeExpr{exprBase{loc}, nil, hi}, nil
	}
	lo, err := p.parseExpo()
	if err != nil {
		return nil, err
	}
	if p.at(token.DOTDOT) {
		p.advance()
		hi, err := p.parseOptionalRangeEndpoint()
		if err != nil {
			return nil, err
		}
		return &RangeExpr{exprBase{loc}, lo, hi}, nil
	}
	return lo, nil
}

func (p *parser) parseOptionalRangeEndpoint() (Expr, *errs.Error) {
	if !p.canStartExpr() {
		return nil, nil
	}
	return p.parseExpo()
}

func (p *parser) canStartExpr() bool {
	switch p.cur().Kind {
	case token.NUMBER, token.STRING, token.IDENT, token.LPAREN, token.LBRACKET, token.DOT, token.MINUS, token.NOT:
		return true
	}
	return false
}

func (p *parser) parseExpo() (Expr, *errs.Error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.at(token.CARET) {
		op := p.cur()
		p.advance()
		right, err := p.parseExpo() // right-associative
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{exprBase{op.Loc}, "^", left, right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, *errs.Error) {
	if p.at(token.MINUS) || p.at(token.NOT) {
		op := p.cur()
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{exprBase{op.Loc}, op.Text, x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, *errs.Error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.at(token.DOT) {
		dotLoc := p.cur().Loc
		p.advance()
		acc, err := p.parseAccessor()
		if err != nil {
			return nil, err
		}
		if call, ok := base.(*CallExpr); ok && acc.Named == "" && acc.Computed == nil {
			base = &ExtractExpr{exprBase{dotLoc}, call, acc.Index}
		} else {
			base = &StrandAccess{exprBase{dotLoc}, base, acc}
		}
		if p.at(token.LPAREN) && p.looksLikeRemap() {
			base, err = p.parseRemapTail(base)
			if err != nil {
				return nil, err
			}
		}
	}
	return base, nil
}

func (p *parser) parseAccessor() (Accessor, *errs.Error) {
	tok := p.cur()
	switch tok.Kind {
	case token.LPAREN:
		p.advance()
		e, err := p.parseChain()
		if err != nil {
			return Accessor{}, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return Accessor{}, err
		}
		return Accessor{Computed: e}, nil
	case token.MINUS:
		p.advance()
		numTok, err := p.expect(token.NUMBER)
		if err != nil {
			return Accessor{}, err
		}
		v, _ := strconv.Atoi(numTok.Text)
		return Accessor{HasIndex: true, Index: -v}, nil
	case token.NUMBER:
		p.advance()
		v, _ := strconv.Atoi(tok.Text)
		return Accessor{HasIndex: true, Index: v}, nil
	case token.IDENT:
		p.advance()
		return Accessor{Named: tok.Text}, nil
	default:
		return Accessor{}, errs.New(errs.ParseErr, tok.Loc, "expected strand accessor, got %v", tok.Kind)
	}
}

// looksLikeRemap implements spec.md §4.2's lookahead rule: a named-strand
// access (or identifier) immediately followed by '(' is a remap only if
// its parenthesized contents contain '~' at paren depth 1; otherwise it
// is an ordinary call/grouping.
func (p *parser) looksLikeRemap() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			depth--
			if depth == 0 {
				return false
			}
		case token.TILDE:
			if depth == 1 {
				return true
			}
		case token.EOF:
			return false
		}
	}
	return false
}

func (p *parser) parseRemapTail(base Expr) (Expr, *errs.Error) {
	loc := base.Location()
	p.advance() // '('
	var subs []RemapSub
	for {
		dom, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.TILDE); err != nil {
			return nil, err
		}
		val, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		subs = append(subs, RemapSub{Dom: dom, Expr: val})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &RemapExpr{exprBase{loc}, base, subs}, nil
}

func (p *parser) parseCallArgs(nameTok token.Token) (Expr, *errs.Error) {
	p.advance() // '('
	call := &CallExpr{exprBase: exprBase{nameTok.Loc}, Name: nameTok.Text}
	for !p.at(token.RPAREN) {
		arg, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseBundleLit() (Expr, *errs.Error) {
	loc := p.cur().Loc
	p.advance() // '['
	lit := &BundleLit{exprBase: exprBase{loc}}
	for !p.at(token.RBRACKET) {
		e, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		lit.Elems = append(lit.Elems, e)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *parser) parsePrimary() (Expr, *errs.Error) {
	tok := p.cur()
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Text, 64)
		return &NumberLit{exprBase{tok.Loc}, v}, nil
	case token.STRING:
		p.advance()
		return &StringLit{exprBase{tok.Loc}, tok.Text}, nil
	case token.IDENT:
		p.advance()
		if p.at(token.LPAREN) {
			if p.looksLikeRemap() {
				return p.parseRemapTail(&Ident{exprBase{tok.Loc}, tok.Text})
			}
			return p.parseCallArgs(tok)
		}
		return &Ident{exprBase{tok.Loc}, tok.Text}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBRACKET:
		return p.parseBundleLit()
	case token.DOT:
		p.advance()
		acc, err := p.parseAccessor()
		if err != nil {
			return nil, err
		}
		return &StrandAccess{exprBase{tok.Loc}, nil, acc}, nil
	default:
		return nil, errs.New(errs.ParseErr, tok.Loc, "unexpected token %v", tok.Kind)
	}
}
