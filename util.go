package fuzzyts

import "strings"

func indentExpand(indent string, growth int) string {
	return strings.Repeat(indent, max(growth, 0))
}
