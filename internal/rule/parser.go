package rule

import (
	"strconv"
	"strings"
)

// Parse parses rule text into a Node.
func Parse(text string) (Node, error) {
	lx := &lexer{src: text}
	toks, err := lx.tokens()
	if err != nil {
		return nil, err
	}

	p := &parser{lx: lx, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, lx.errorf(0, "empty rule")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, lx.errorf(tok.pos, "unexpected %q", tok.text)
	}
	return n, nil
}

type parser struct {
	lx         *lexer
	toks       []token
	pos        int
	positional int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) keyword(word string) bool {
	tok := p.peek()
	return tok.kind == tokIdent && strings.EqualFold(tok.text, word)
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.keyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokOp {
		p.advance()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return Binary{Op: tok.text, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseOperand() (Node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.kind != tokRParen {
			return nil, p.lx.errorf(closing.pos, "expected ')'")
		}
		return n, nil
	case tokPositional:
		n := Parameter{Index: p.positional}
		p.positional++
		return n, nil
	case tokNamed:
		return Parameter{Name: tok.text}, nil
	case tokString:
		return Literal{Value: tok.text}, nil
	case tokNumber:
		if strings.Contains(tok.text, ".") {
			f, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return nil, p.lx.errorf(tok.pos, "invalid number %q", tok.text)
			}
			return Literal{Value: f}, nil
		}
		i, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, p.lx.errorf(tok.pos, "invalid number %q", tok.text)
		}
		return Literal{Value: i}, nil
	case tokIdent:
		return p.parseIdent(tok)
	case tokEOF:
		return nil, p.lx.errorf(tok.pos, "unexpected end of rule")
	default:
		return nil, p.lx.errorf(tok.pos, "unexpected %q", tok.text)
	}
}

func (p *parser) parseIdent(tok token) (Node, error) {
	switch strings.ToLower(tok.text) {
	case "true":
		return Literal{Value: true}, nil
	case "false":
		return Literal{Value: false}, nil
	case "null":
		return Literal{Value: nil}, nil
	case "and", "or", "not":
		return nil, p.lx.errorf(tok.pos, "unexpected keyword %q", tok.text)
	}

	if p.peek().kind == tokLParen {
		p.advance()
		call := Call{Name: strings.ToLower(tok.text)}
		if p.peek().kind == tokRParen {
			p.advance()
			return call, nil
		}
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			sep := p.advance()
			if sep.kind == tokRParen {
				return call, nil
			}
			if sep.kind != tokComma {
				return nil, p.lx.errorf(sep.pos, "expected ',' or ')' in call to %s", tok.text)
			}
		}
	}

	path := []string{tok.text}
	for p.peek().kind == tokDot {
		p.advance()
		seg := p.advance()
		if seg.kind != tokIdent && seg.kind != tokNumber {
			return nil, p.lx.errorf(seg.pos, "expected property name after '.'")
		}
		path = append(path, seg.text)
	}
	return Access{Path: path}, nil
}
