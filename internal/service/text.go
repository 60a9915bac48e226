package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var markup = bluemonday.StrictPolicy()

// plainText strips markup from user input and returns the remaining text unescaped,
// so "R&D" stays "R&D" while "<b>R&D</b>" becomes "R&D" too.
func plainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(markup.Sanitize(strings.TrimSpace(value))))
}
