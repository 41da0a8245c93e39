package archive

// Chunk splits list into consecutive groups of at most size elements.
// A non-positive size yields the whole list as one group; an empty list
// yields no groups.
func Chunk[T any](list []T, size int) [][]T {
	if len(list) == 0 {
		return nil
	}
	if size <= 0 || size >= len(list) {
		return [][]T{list}
	}

	chunks := make([][]T, 0, (len(list)+size-1)/size)
	for start := 0; start < len(list); start += size {
		end := min(start+size, len(list))
		chunks = append(chunks, list[start:end:end])
	}
	return chunks
}
