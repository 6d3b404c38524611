package ingest

import "strings"

// chunkText splits text into word windows of chunkWords with overlapWords
// of context carried between adjacent chunks. Chunk boundaries are word
// boundaries; the final chunk takes whatever remains.
func chunkText(text string, chunkWords, overlapWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if chunkWords <= 0 || len(words) <= chunkWords {
		return []string{strings.Join(words, " ")}
	}

	step := chunkWords - overlapWords
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
