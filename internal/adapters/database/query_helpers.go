package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user input into an ILIKE substring pattern with the
// LIKE wildcards escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// chunkIDs splits ids into slices of at most size elements
func chunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = len(ids)
	}
	chunks := make([][]int64, 0, (len(ids)+size-1)/max(size, 1))
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
