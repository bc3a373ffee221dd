package metadata

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Converts `add_in_place` to `AddInPlace`.
func CamelCase(name string) string {
	titleCaser := cases.Title(language.Und, cases.NoLower)
	var builder strings.Builder
	for _, word := range strings.Split(name, "_") {
		builder.WriteString(titleCaser.String(word))
	}
	return builder.String()
}

// Converts `AddInPlace` to `addInPlace`.
func LowerCamelCase(name string) string {
	camel := CamelCase(name)
	runes := []rune(camel)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		// Keep the last capital of a leading acronym when a word follows it.
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		i++
	}
	return cases.Lower(language.Und).String(string(runes[:i])) + string(runes[i:])
}

// Converts `HTTPServer2` to `http_server2`.
func SnakeCase(name string) string {
	runes := []rune(name)
	var builder strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			previous := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(previous) || unicode.IsDigit(previous) || (unicode.IsUpper(previous) && nextIsLower) {
				builder.WriteRune('_')
			}
		}
		builder.WriteRune(r)
	}
	return cases.Lower(language.Und).String(builder.String())
}
