package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestChunk(t *testing.T) {
	cases := []struct {
		n, size int
		want    []int
	}{
		{0, 15, nil},
		{1, 15, []int{1}},
		{15, 15, []int{15}},
		{16, 15, []int{15, 1}},
		{31, 15, []int{15, 15, 1}},
		{30, 15, []int{15, 15}},
		{7, 0, []int{7}},
	}
	for _, tc := range cases {
		chunks := Chunk(seq(tc.n), tc.size)
		var sizes []int
		for _, c := range chunks {
			sizes = append(sizes, len(c))
		}
		assert.Equal(t, tc.want, sizes, "n=%d size=%d", tc.n, tc.size)
	}
}

func TestChunkPreservesOrder(t *testing.T) {
	var flat []int
	for _, c := range Chunk(seq(40), 15) {
		flat = append(flat, c...)
	}
	assert.Equal(t, seq(40), flat)
}

func TestChunkGroupsDoNotAlias(t *testing.T) {
	chunks := Chunk([]string{"a", "b", "c"}, 2)
	chunks[0] = append(chunks[0], "x")
	assert.Equal(t, []string{"c"}, chunks[1])
}
