package domain

// MaxSim computes the late-interaction similarity between a query vector set
// and a page vector set: for each query vector, the maximum dot product
// against any page vector, summed over the query. This is the reference
// scorer; the Postgres repository evaluates the same operator as a SQL
// aggregate so page vector sets never round-trip through the application.
func MaxSim(query, page VectorSet) float64 {
	var sum float64
	for _, q := range query {
		best := 0.0
		first := true
		for _, p := range page {
			sim := dot(q, p)
			if first || sim > best {
				best = sim
				first = false
			}
		}
		if !first {
			sum += best
		}
	}
	return sum
}

// NormalizationExtraTokens is added to the query vector count before score
// normalization. The embedding model pads every query with a fixed prefix of
// instruction tokens that never appear in the returned vector set; 12 matches
// the observed padding and keeps normalized scores comparable across queries.
const NormalizationExtraTokens = 12

// NormalizeScore divides a raw MaxSim score by the padded query length.
func NormalizeScore(raw float64, queryLen int) float64 {
	return raw / float64(queryLen+NormalizationExtraTokens)
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
