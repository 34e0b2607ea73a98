package syntax

import (
	"github.com/coffasm/coffasm/internal/scan"
)

// Lex splits source into tokens. Whitespace, newlines and ';' comments
// separate tokens but are not returned; use Token.Line to find line breaks.
func Lex(source string) ([]Token, error) {
	var tokens []Token
	line := 1
	for pos := 0; pos < len(source); {
		if next, ok := scan.SkipSpace(source, pos); ok {
			pos = next
			continue
		}

		switch {
		case source[pos] == '\n':
			line++
			pos++
			continue
		case scan.IsComment(source, pos):
			for pos < len(source) && source[pos] != '\n' {
				pos++
			}
			continue
		}

		tok := Token{Offset: pos, Line: line}
		if text, next, ok := scan.ScanFigure(source, pos); ok {
			tok.Kind, tok.Text, pos = TokenFigure, text, next
		} else if text, next, ok := scan.ScanWord(source, pos); ok {
			tok.Kind, tok.Text, pos = TokenWord, text, next
		} else if punct, next, ok := scan.ScanPunct(source, pos); ok {
			tok.Kind, tok.Text, pos = TokenPunct, string(punct), next
		} else if text, next, ok, err := scan.ScanString(source, pos); err != nil {
			return nil, err
		} else if ok {
			tok.Kind, tok.Text, pos = TokenString, text, next
		} else {
			return nil, scan.Errorf(scan.ErrorKindLexical, pos, "unexpected %q", source[pos])
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
