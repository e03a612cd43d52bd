package test

import (
	"math/rand"
	"strings"
)

const validTokens = "def;extern;foo;bar;fib;x;y;(;);,;+;-;*;<;1;42;123;3.14;0.5;.5;# a line comment\n;\n"

func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
