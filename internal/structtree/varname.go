package structtree

import (
	"go/token"
	"strings"
	"unicode"
)

var varNameReplacer = strings.NewReplacer(
	"@", "_",
	"$", "_",
	" ", "_",
	".", "_",
	",", "_",
	"-", "_",
	"/", "_",
	"\\", "_",
)

// ToVarName rewrites a source field name into a collision-safe identifier:
// punctuation becomes underscores, and names that start with a digit or
// collide with a reserved word get a leading underscore.
func ToVarName(name string) string {
	if name == "" {
		return name
	}
	result := varNameReplacer.Replace(name)
	first := []rune(result)[0]
	if token.IsKeyword(result) || unicode.IsDigit(first) {
		result = "_" + result
	}
	return result
}
