package bot

import (
	"strings"
	"unicode/utf8"

	"recipe-bot/internal/storage"
)

func recipePrompt(products []storage.Product) string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return recipePromptPrefix + strings.Join(names, ", ")
}

func greeting() string {
	var sb strings.Builder
	sb.WriteString(msgGreeting)
	for i, c := range commands {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("/" + c.name + " - " + c.description)
	}
	return sb.String()
}

// truncate cuts text to at most limit characters.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
