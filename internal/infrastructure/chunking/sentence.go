package chunking

// splitSentences breaks text into sentences using the language-appropriate
// terminator pattern, keeping the terminating punctuation with the sentence
// that precedes it. Any unterminated trailing remainder is kept as a final
// "sentence".
func splitSentences(lang, text string) []string {
	re := sentenceSplitEnRe
	if lang == "zh" {
		re = sentenceSplitZhRe
	}

	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var out []string
	last := 0
	for _, m := range matches {
		out = append(out, text[last:m[1]])
		last = m[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}
