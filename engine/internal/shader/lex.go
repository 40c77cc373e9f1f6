// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package shader implements the text pipeline applied to
// pass sources: directive injection, parsing of uniform
// declarations, register packing and source rewriting.
package shader

import (
	"unicode"
	"unicode/utf8"
)

// Token kinds.
const (
	tIdent = iota
	tNumber
	tPunct
	tDirective
)

type token struct {
	kind  int
	text  string
	start int
	end   int
	line  int
}

// lex splits src into tokens. Comments are skipped.
// A preprocessor directive becomes a single token that
// spans the whole line (backslash continuations
// included).
func lex(src string) []token {
	var toks []token
	line := 1
	bol := true
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			bol = true
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				if src[i] == '\n' {
					line++
				}
				i++
			}
			i += 2
			continue
		case c == '#' && bol:
			j := i
			for j < len(src) && src[j] != '\n' {
				if src[j] == '\\' && j+1 < len(src) && src[j+1] == '\n' {
					line++
					j++
				}
				j++
			}
			toks = append(toks, token{tDirective, src[i:j], i, j, line})
			i = j
			continue
		}
		bol = false
		r, n := utf8.DecodeRuneInString(src[i:])
		j := i + n
		switch {
		case r == '_' || unicode.IsLetter(r):
			for j < len(src) {
				r, n := utf8.DecodeRuneInString(src[j:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				j += n
			}
			toks = append(toks, token{tIdent, src[i:j], i, j, line})
		case unicode.IsDigit(r) || r == '.' && j < len(src) && src[j] >= '0' && src[j] <= '9':
			for j < len(src) {
				c := src[j]
				if c != '.' && c != '_' && !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
					break
				}
				j++
			}
			toks = append(toks, token{tNumber, src[i:j], i, j, line})
		default:
			toks = append(toks, token{tPunct, src[i:j], i, j, line})
		}
		i = j
	}
	return toks
}

// directive splits a directive token into its name
// (without '#') and the remaining words.
func directive(text string) (name string, args []string) {
	var words []string
	for _, t := range lex(text[1:]) {
		words = append(words, t.text)
	}
	if len(words) == 0 {
		return "", nil
	}
	return words[0], words[1:]
}
