package utils

import "unicode"

// SplitText splits a long string into chunks of at most 'chunkSize' runes.
// Consecutive chunks share 'overlap' runes so context survives the boundary.
// A cut is moved back to the last whitespace in the window when one exists.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []string{text}
	}

	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < totalLen; {
		end := start + chunkSize
		if end >= totalLen {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// back off to a word boundary, but never past the overlap region
		for cut := end; cut > start+overlap+1; cut-- {
			if unicode.IsSpace(runes[cut-1]) {
				end = cut
				break
			}
		}

		chunks = append(chunks, string(runes[start:end]))
		start = end - overlap
	}

	return chunks
}
