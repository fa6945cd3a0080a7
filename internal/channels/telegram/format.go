package telegram

import (
	"strings"

	"github.com/wasilibs/go-re2"
)

var linkPattern = re2.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)

// markupReplacer drops emphasis and code markers. Underscores are left alone
// because they are common in email addresses.
var markupReplacer = strings.NewReplacer("```", "", "**", "", "*", "", "`", "")

// StripMarkdown removes Telegram Markdown markup so the text can be sent
// without a parse mode.
func StripMarkdown(text string) string {
	if text == "" {
		return ""
	}
	text = linkPattern.ReplaceAllString(text, "$1 ($2)")
	return markupReplacer.Replace(text)
}
