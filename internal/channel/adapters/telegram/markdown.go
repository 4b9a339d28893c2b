package telegram

import (
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var reInlineCode = regexp.MustCompile("`([^`\\n]+?)`")

// formatReply renders the inline code spans used in command hints as Telegram HTML.
// Text without code spans is sent plain.
func formatReply(text string) (string, string) {
	if !reInlineCode.MatchString(text) {
		return text, ""
	}
	var buf strings.Builder
	last := 0
	for _, loc := range reInlineCode.FindAllStringSubmatchIndex(text, -1) {
		buf.WriteString(telegramEscapeHTML(text[last:loc[0]]))
		buf.WriteString("<code>")
		buf.WriteString(telegramEscapeHTML(text[loc[2]:loc[3]]))
		buf.WriteString("</code>")
		last = loc[1]
	}
	buf.WriteString(telegramEscapeHTML(text[last:]))
	return buf.String(), tgbotapi.ModeHTML
}

// telegramEscapeHTML escapes characters that are special in HTML.
func telegramEscapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}
