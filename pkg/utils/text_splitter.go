package utils

// SplitText splits a long string into chunks of approximately 'chunkSize'
// runes, with 'overlap' runes repeated at each boundary to preserve context.
// Character-based splitting keeps Korean text intact without a tokenizer.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}
