package schema

import "fmt"

type TokenKind int

const (
	TokenIdentifier TokenKind = iota
	TokenTypeKeyword
	TokenDirective
	TokenNumber
	TokenString
	TokenModifier
	TokenRelationOp
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace
	TokenLParen
	TokenRParen
	TokenLAngle
	TokenRAngle
	TokenComma
	TokenColon
	TokenEquals
	TokenPipe
	TokenEOF
)

func (k TokenKind) String() string {
	return map[TokenKind]string{
		TokenIdentifier:  "Identifier",
		TokenTypeKeyword: "TypeKeyword",
		TokenDirective:   "Directive",
		TokenNumber:      "Number",
		TokenString:      "String",
		TokenModifier:    "Modifier",
		TokenRelationOp:  "RelationOp",
		TokenLBracket:    "LBracket",
		TokenRBracket:    "RBracket",
		TokenLBrace:      "LBrace",
		TokenRBrace:      "RBrace",
		TokenLParen:      "LParen",
		TokenRParen:      "RParen",
		TokenLAngle:      "LAngle",
		TokenRAngle:      "RAngle",
		TokenComma:       "Comma",
		TokenColon:       "Colon",
		TokenEquals:      "Equals",
		TokenPipe:        "Pipe",
		TokenEOF:         "EOF",
	}[k]
}

// Token is one lexical unit of a type, relation, or directive fragment.
// Line and Column are 1-based.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
}

func (t Token) Info() string {
	return fmt.Sprintf("%s %q at %d:%d", t.Kind, t.Text, t.Line, t.Column)
}

type scanner struct {
	runes []rune
	pos   int
	line  int
	col   int
}

// Tokenize converts a raw schema fragment into a flat token stream. It never
// fails: unterminated strings contribute their partial content, unmatched
// brackets stay individual bracket tokens, and characters outside the lexical
// grammar are skipped. The result always ends with a single EOF token.
func Tokenize(input string) []Token {
	s := &scanner{runes: []rune(input), line: 1, col: 1}
	var tokens []Token

	for !s.done() {
		r := s.peek()
		switch {
		case r == '\n' || r == '\r':
			s.newline()
		case r == ' ' || r == '\t':
			s.advance()
		case isIdentStart(r):
			tokens = append(tokens, s.scanWord())
		case r >= '0' && r <= '9':
			tokens = append(tokens, s.scanNumber())
		case r == '-':
			if tok, ok := s.scanDash(); ok {
				tokens = append(tokens, tok)
			}
		case r == '~':
			if tok, ok := s.scanTilde(); ok {
				tokens = append(tokens, tok)
			}
		case r == '<':
			tokens = append(tokens, s.scanLAngle())
		case r == '"' || r == '\'':
			tokens = append(tokens, s.scanString())
		default:
			if kind, ok := singleCharKinds[r]; ok {
				tokens = append(tokens, s.emit(kind, string(r)))
				s.advance()
			} else {
				// Unsupported character: skip without complaint.
				s.advance()
			}
		}
	}

	tokens = append(tokens, Token{Kind: TokenEOF, Line: s.line, Column: s.col})
	return tokens
}

var singleCharKinds = map[rune]TokenKind{
	'!': TokenModifier,
	'#': TokenModifier,
	'?': TokenModifier,
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'(': TokenLParen,
	')': TokenRParen,
	'>': TokenRAngle,
	',': TokenComma,
	':': TokenColon,
	'=': TokenEquals,
	'|': TokenPipe,
}

func (s *scanner) done() bool { return s.pos >= len(s.runes) }

func (s *scanner) peek() rune { return s.runes[s.pos] }

func (s *scanner) peekAt(offset int) (rune, bool) {
	if s.pos+offset >= len(s.runes) {
		return 0, false
	}
	return s.runes[s.pos+offset], true
}

func (s *scanner) advance() {
	s.pos++
	s.col++
}

// newline consumes \n, \r\n, or a bare \r as a single line break.
func (s *scanner) newline() {
	if s.peek() == '\r' {
		if next, ok := s.peekAt(1); ok && next == '\n' {
			s.pos++
		}
	}
	s.pos++
	s.line++
	s.col = 1
}

func (s *scanner) emit(kind TokenKind, text string) Token {
	return Token{Kind: kind, Text: text, Line: s.line, Column: s.col}
}

func (s *scanner) scanWord() Token {
	start := s.pos
	startLine, startCol := s.line, s.col
	for !s.done() && isIdentChar(s.peek()) {
		s.advance()
	}
	text := string(s.runes[start:s.pos])

	kind := TokenIdentifier
	switch {
	case text[0] == '$':
		kind = TokenDirective
	case IsKnownType(text):
		kind = TokenTypeKeyword
	}
	return Token{Kind: kind, Text: text, Line: startLine, Column: startCol}
}

func (s *scanner) scanNumber() Token {
	start := s.pos
	startLine, startCol := s.line, s.col
	if s.peek() == '-' {
		s.advance()
	}
	for !s.done() && isDigit(s.peek()) {
		s.advance()
	}
	if !s.done() && s.peek() == '.' {
		if next, ok := s.peekAt(1); ok && isDigit(next) {
			s.advance()
			for !s.done() && isDigit(s.peek()) {
				s.advance()
			}
		}
	}
	return Token{Kind: TokenNumber, Text: string(s.runes[start:s.pos]), Line: startLine, Column: startCol}
}

func (s *scanner) scanDash() (Token, bool) {
	if next, ok := s.peekAt(1); ok {
		if next == '>' {
			tok := s.emit(TokenRelationOp, "->")
			s.advance()
			s.advance()
			return tok, true
		}
		if isDigit(next) {
			return s.scanNumber(), true
		}
	}
	s.advance()
	return Token{}, false
}

func (s *scanner) scanTilde() (Token, bool) {
	if next, ok := s.peekAt(1); ok && next == '>' {
		tok := s.emit(TokenRelationOp, "~>")
		s.advance()
		s.advance()
		return tok, true
	}
	s.advance()
	return Token{}, false
}

// scanLAngle resolves <- and <~ before falling back to a bare angle bracket.
func (s *scanner) scanLAngle() Token {
	if next, ok := s.peekAt(1); ok {
		if next == '-' {
			tok := s.emit(TokenRelationOp, "<-")
			s.advance()
			s.advance()
			return tok
		}
		if next == '~' {
			tok := s.emit(TokenRelationOp, "<~")
			s.advance()
			s.advance()
			return tok
		}
	}
	tok := s.emit(TokenLAngle, "<")
	s.advance()
	return tok
}

// scanString reads a quoted literal. Only the enclosing quote character can
// be escaped; every other rune, Unicode included, is kept as-is. Running out
// of input keeps whatever content was collected.
func (s *scanner) scanString() Token {
	quote := s.peek()
	startLine, startCol := s.line, s.col
	s.advance()

	var content []rune
	for !s.done() {
		r := s.peek()
		if r == '\\' {
			if next, ok := s.peekAt(1); ok && next == quote {
				content = append(content, quote)
				s.advance()
				s.advance()
				continue
			}
		}
		if r == quote {
			s.advance()
			break
		}
		if r == '\n' || r == '\r' {
			content = append(content, '\n')
			s.newline()
			continue
		}
		content = append(content, r)
		s.advance()
	}
	return Token{Kind: TokenString, Text: string(content), Line: startLine, Column: startCol}
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
