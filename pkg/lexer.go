package kaleidoscope

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType uint64
type stateFunc func(l *Lexer) stateFunc

//go:generate stringer -type=TokenType -trimprefix=Token
const (
	EOF rune = 0

	TokenEOF TokenType = iota
	TokenNumber
	TokenIdentifier

	TokenDef
	TokenExtern

	TokenOpenParentheses
	TokenCloseParentheses
	TokenComma
	TokenSemicolon

	// TokenChar covers every character with no dedicated type: binary
	// operators known to the parser's precedence table as well as any
	// stray symbol. The lexer never rejects input.
	TokenChar
)

var keywordTable = map[string]TokenType{
	"def":    TokenDef,
	"extern": TokenExtern,
}

var operatorTable = map[string]TokenType{
	"(": TokenOpenParentheses,
	")": TokenCloseParentheses,
	",": TokenComma,
	";": TokenSemicolon,
}

type Location struct {
	File string
	Line int
	Col  int
}

func (l *Location) String() string {
	if l == nil {
		return "?"
	}

	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

type Token struct {
	Typ   TokenType
	Value string
	Loc   *Location
}

func (t Token) isValid() bool {
	return t.Typ != TokenEOF
}

// Tokenizer is the parser-facing contract: a stream of tokens ending in a
// TokenEOF that repeats on every further Get.
type Tokenizer interface {
	Do()
	Get() Token
	GetFilename() string
}

type Lexer struct {
	filename string
	reader   *bufio.Reader
	closer   io.Closer
	done     chan Token

	line int
	col  int
}

func NewLexer(filename string) (*Lexer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	l := NewLexerFromReader(f)
	l.filename = filename
	l.closer = f

	return l, nil
}

func NewLexerFromReader(reader io.Reader) *Lexer {
	return &Lexer{
		filename: "<input>",
		reader:   bufio.NewReader(reader),
		done:     make(chan Token),
		line:     1,
		col:      1,
	}
}

func (l *Lexer) GetFilename() string {
	return l.filename
}

func (l *Lexer) Chan() chan Token {
	return l.done
}

// Do runs the lexer as the producing end of a Tokenizer pipeline.
func (l *Lexer) Do() {
	l.Run()
}

// Get blocks until the next token is available.
func (l *Lexer) Get() Token {
	return <-l.done
}

func (l *Lexer) Run() {
	for state := defaultState; state != nil; {
		state = state(l)
	}

	if l.closer != nil {
		_ = l.closer.Close()
	}

	close(l.done)
}

// RunBlocking drains the whole input and returns every token up to, but not
// including, the end-of-input token.
func (l *Lexer) RunBlocking() []Token {
	go l.Run()

	var tokens []Token
	for {
		t := <-l.Chan()
		if t.Typ == TokenEOF {
			return tokens
		}

		tokens = append(tokens, t)
	}
}

func defaultState(l *Lexer) stateFunc {
	for {
		switch r := l.peek(); {
		case r == EOF:
			l.done <- Token{Typ: TokenEOF, Loc: l.location()}
			return nil
		case unicode.IsSpace(r):
			l.next()
			continue
		case unicode.IsLetter(r):
			return identifierState
		case '0' <= r && r <= '9' || r == '.':
			return numberState
		case r == '#':
			return commentState
		default:
			return charState
		}
	}
}

func identifierState(l *Lexer) stateFunc {
	loc := l.location()

	var id strings.Builder
	for r := l.peek(); unicode.IsLetter(r) || unicode.IsDigit(r); r = l.peek() {
		id.WriteRune(l.next())
	}

	if t, ok := keywordTable[id.String()]; ok {
		return l.emmitValue(t, id.String(), loc)
	}

	return l.emmitValue(TokenIdentifier, id.String(), loc)
}

// numberState accepts any run of digits and dots. Text such as "1.2.3" is
// lexed as a single number token; the parser's float conversion decides what
// value it carries.
func numberState(l *Lexer) stateFunc {
	loc := l.location()

	var num strings.Builder
	for r := l.peek(); '0' <= r && r <= '9' || r == '.'; r = l.peek() {
		num.WriteRune(l.next())
	}

	return l.emmitValue(TokenNumber, num.String(), loc)
}

// commentState discards everything through end of line. Comments never
// become tokens.
func commentState(l *Lexer) stateFunc {
	for r := l.peek(); r != '\n' && r != EOF; r = l.peek() {
		l.next()
	}

	return defaultState
}

func charState(l *Lexer) stateFunc {
	loc := l.location()
	r := l.next()

	if tok, ok := operatorTable[string(r)]; ok {
		return l.emmitValue(tok, string(r), loc)
	}

	return l.emmitValue(TokenChar, string(r), loc)
}

func (l *Lexer) emmitValue(t TokenType, val string, loc *Location) stateFunc {
	l.done <- Token{
		Typ:   t,
		Value: val,
		Loc:   loc,
	}

	return defaultState
}

func (l *Lexer) location() *Location {
	return &Location{
		File: l.filename,
		Line: l.line,
		Col:  l.col,
	}
}

func (l *Lexer) peek() rune {
	r := l.read()
	_ = l.reader.UnreadRune()

	return r
}

func (l *Lexer) next() rune {
	r := l.read()
	switch r {
	case '\n':
		l.line++
		l.col = 1
	case EOF:
	default:
		l.col++
	}

	return r
}

func (l *Lexer) read() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return EOF
		}

		return utf8.RuneError
	}

	return r
}
