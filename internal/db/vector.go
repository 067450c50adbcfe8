package db

import (
	"strconv"
	"strings"
)

// VectorLiteral formats one vector as a pgvector input literal, e.g.
// "[0.1,0.2,0.3]".
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// VectorArrayLiteral formats a multi-vector set as a Postgres halfvec[] input
// literal, e.g. `{"[0.1,0.2]","[0.3,0.4]"}`. Pass it as a text parameter with
// a ::halfvec[] cast.
func VectorArrayLiteral(set [][]float32) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range set {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(VectorLiteral(v))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}
