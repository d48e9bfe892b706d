package core

import (
	"fmt"
	"io"
	"strconv"
)

// ResolveFunc turns an indirect reference into the object it points to.
// Parsing and typed decoding take one instead of owning the
// cross-reference table, so the same code runs before and after a document
// has been fully opened.
type ResolveFunc func(ref IndirectRef) (Object, error)

// Parser parses objects from an in-memory byte range. It keeps one token of
// lookahead and backtracks over the lexer to recognise "num gen R".
type Parser struct {
	lexer   *Lexer
	tok     *Token
	err     error
	resolve ResolveFunc
}

// NewParser creates a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	p := &Parser{lexer: NewLexer(data)}
	p.advance()
	return p
}

// SetReferenceResolver installs the callback used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolve ResolveFunc) {
	p.resolve = resolve
}

// Offset returns the position of the current token.
func (p *Parser) Offset() int {
	return p.tok.Pos
}

// advance moves to the next non-comment token. Lexer errors are sticky.
func (p *Parser) advance() {
	if p.err != nil {
		return
	}
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			p.err = err
			p.tok = &Token{Type: TokenEOF, Pos: p.lexer.Pos()}
			return
		}
		if tok.Type != TokenComment {
			p.tok = tok
			return
		}
	}
}

// ParseObject parses the next direct object. At the end of input it returns
// io.EOF.
func (p *Parser) ParseObject() (Object, error) {
	if p.err != nil {
		return nil, p.err
	}

	tok := p.tok
	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		var obj Object
		switch string(tok.Value) {
		case "null":
			obj = Null{}
		case "true":
			obj = Bool(true)
		case "false":
			obj = Bool(false)
		default:
			return nil, fmt.Errorf("unexpected keyword %q at position %d", tok.Value, tok.Pos)
		}
		p.advance()
		return obj, nil

	case TokenInteger:
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number %q: %w", tok.Value, err)
		}
		p.advance()
		return Real(val), nil

	case TokenString:
		p.advance()
		return String(tok.Value), nil

	case TokenHexString:
		hex := tok.Value
		out := make([]byte, (len(hex)+1)/2)
		for i := range out {
			hi := hexValue(hex[2*i])
			var lo byte
			if 2*i+1 < len(hex) {
				lo = hexValue(hex[2*i+1])
			}
			out[i] = hi<<4 | lo
		}
		p.advance()
		return String(out), nil

	case TokenName:
		p.advance()
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Pos)
	}
}

// parseNumber parses an integer, or an indirect reference when the integer is
// followed by another integer and R.
func (p *Parser) parseNumber() (Object, error) {
	first, err := strconv.ParseInt(string(p.tok.Value), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(p.tok.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid number %q", p.tok.Value)
		}
		p.advance()
		return Real(f), nil
	}

	mark := p.lexer.Pos()
	p.advance()
	if p.err == nil && p.tok.Type == TokenInteger {
		second := p.tok
		p.advance()
		if p.err == nil && p.tok.Type == TokenIndirectRef {
			gen, err := strconv.Atoi(string(second.Value))
			if err != nil {
				return nil, fmt.Errorf("invalid generation number %q", second.Value)
			}
			p.advance()
			return IndirectRef{Number: int(first), Generation: gen}, nil
		}
		// Not a reference: rewind to just after the first integer.
		p.err = nil
		p.lexer.SetPos(mark)
		p.advance()
	}
	return Int(first), nil
}

func (p *Parser) parseArray() (Object, error) {
	p.advance() // [

	arr := Array{}
	for {
		if p.err != nil {
			return nil, p.err
		}
		switch p.tok.Type {
		case TokenArrayEnd:
			p.advance()
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated array: %w", io.ErrUnexpectedEOF)
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing array element %d: %w", len(arr), err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	p.advance() // <<

	dict := make(Dict)
	for {
		if p.err != nil {
			return nil, p.err
		}
		switch p.tok.Type {
		case TokenDictEnd:
			p.advance()
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated dictionary: %w", io.ErrUnexpectedEOF)
		case TokenName:
		default:
			return nil, fmt.Errorf("expected name for dictionary key at position %d, got %q", p.tok.Pos, p.tok.Value)
		}
		key := string(p.tok.Value)
		p.advance()

		value, err := p.ParseObject()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}
		// A null value is equivalent to the key being absent.
		if _, isNull := value.(Null); !isNull {
			dict[key] = value
		}
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including a
// stream body when the object is a stream.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	num, err := p.expectInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectInt("generation number")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("obj"); err != nil {
		return nil, err
	}

	obj, err := p.ParseObject()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing indirect object value: %w", err)
	}

	if p.tok.IsKeyword("stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream must follow a dictionary")
		}
		if obj, err = p.parseStream(dict); err != nil {
			return nil, fmt.Errorf("error parsing stream: %w", err)
		}
	}

	if err := p.expectKeyword("endobj"); err != nil {
		return nil, err
	}

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

// parseStream reads the stream body; the current token is the stream keyword
// and the lexer sits right after it.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	var length int
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolve == nil {
			return nil, fmt.Errorf("indirect reference for stream length requires a reference resolver")
		}
		resolved, err := p.resolve(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stream length reference: %w", err)
		}
		n, ok := resolved.(Int)
		if !ok {
			return nil, fmt.Errorf("stream length reference resolved to %T, expected Int", resolved)
		}
		length = int(n)
	case nil:
		return nil, &EntryNotFoundError{Key: "Length"}
	default:
		return nil, fmt.Errorf("invalid type for stream length: %T", v)
	}
	if length < 0 {
		return nil, fmt.Errorf("invalid stream length: %d", length)
	}

	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("failed to skip EOL after stream keyword: %w", err)
	}
	data, err := p.lexer.ReadBytes(length)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream data: %w", err)
	}

	p.advance()
	if err := p.expectKeyword("endstream"); err != nil {
		return nil, err
	}

	return &Stream{Dict: dict, Data: data}, nil
}

func (p *Parser) expectInt(what string) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if p.tok.Type == TokenEOF {
		return 0, fmt.Errorf("expected %s: %w", what, io.ErrUnexpectedEOF)
	}
	if p.tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s at position %d, got %q", what, p.tok.Pos, p.tok.Value)
	}
	v, err := strconv.Atoi(string(p.tok.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	p.advance()
	return v, nil
}

func (p *Parser) expectKeyword(kw string) error {
	if p.err != nil {
		return p.err
	}
	if p.tok.Type == TokenEOF {
		return fmt.Errorf("expected '%s' keyword: %w", kw, io.ErrUnexpectedEOF)
	}
	if !p.tok.IsKeyword(kw) {
		return fmt.Errorf("expected '%s' keyword at position %d, got %q", kw, p.tok.Pos, p.tok.Value)
	}
	p.advance()
	return nil
}
