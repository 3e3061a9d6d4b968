package textclean

import "strings"

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isClosingQuote(r rune) bool {
	switch r {
	case '"', '”', '\'', '’':
		return true
	}
	return false
}

// SplitSentences splits text after terminal punctuation (. ! ? 。 ！ ？),
// keeping one optional closing quote with the sentence. Runs of terminal
// punctuation stay attached to the sentence they end. Sentence order is
// preserved and empty fragments are dropped.
func SplitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if !isTerminal(r) {
			continue
		}
		for i+1 < len(runes) && isTerminal(runes[i+1]) {
			i++
			current.WriteRune(runes[i])
		}
		if i+1 < len(runes) && isClosingQuote(runes[i+1]) {
			i++
			current.WriteRune(runes[i])
		}
		flush()
	}
	flush()

	return sentences
}

// ContextSentences returns, in document order, up to limit sentences that
// contain every keyword. A limit <= 0 means 10.
func ContextSentences(sentences []string, keywords []string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	if len(keywords) == 0 {
		return nil
	}

	var matches []string
	for _, sent := range sentences {
		if !containsAll(sent, keywords) {
			continue
		}
		matches = append(matches, sent)
		if len(matches) >= limit {
			break
		}
	}
	return matches
}

func containsAll(sentence string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(sentence, kw) {
			return false
		}
	}
	return true
}
