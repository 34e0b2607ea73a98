// Package syntax is a two stage front end: Lex turns source into a flat token
// sequence and Parse turns tokens into typed statements.
//
// It accepts the same grammar as the assembler engine plus the "global",
// "bits" and "default" declarations, and resolves global names against label
// definitions. It does not encode anything: it backs syntax checking.
package syntax

// TokenKind is the lexical class of a Token.
type TokenKind byte

const (
	TokenInvalid TokenKind = iota
	// TokenFigure is an unsigned decimal number, e.g. 1000000
	TokenFigure
	// TokenWord is an identifier, mnemonic or register, e.g. mov, .text or _start
	TokenWord
	// TokenPunct is one of , : ( ) [ ]
	TokenPunct
	// TokenString is a single or double quoted string. Token.Text is the
	// content without quotes.
	TokenString
)

// tokenKindNames is index-coordinated with TokenKind.
var tokenKindNames = [...]string{
	"invalid",
	"figure",
	"word",
	"punct",
	"string",
}

// String returns the name of this kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return tokenKindNames[TokenInvalid]
}

// Token is one lexical unit.
type Token struct {
	Kind TokenKind
	Text string
	// Offset is the byte offset of the token in the source. For a string it is
	// the offset of the opening quote.
	Offset int
	// Line is the 1-based source line.
	Line int
}
