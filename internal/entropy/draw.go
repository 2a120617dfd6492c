package entropy

// Chance reports a Bernoulli success with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Intn returns an int in [0, n). n must be positive.
func Intn(src Source, n int) int {
	if n <= 1 {
		return 0
	}
	v := int(src.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Between returns an int in [lo, hi], inclusive.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + Intn(src, hi-lo+1)
}

// Uniform returns a float in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Pick returns one element of items chosen uniformly.
func Pick[T any](src Source, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[Intn(src, len(items))]
}

// Sample returns n distinct elements of pool, in draw order.
func Sample[T any](src Source, pool []T, n int) []T {
	if n > len(pool) {
		n = len(pool)
	}
	rest := append([]T(nil), pool...)
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		j := Intn(src, len(rest))
		out = append(out, rest[j])
		rest = append(rest[:j], rest[j+1:]...)
	}
	return out
}

// Weighted is one option of a weighted draw.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// Choose draws one option in proportion to its weight. Non-positive weights
// are never chosen; if all are, the first option is returned.
func Choose[T any](src Source, options []Weighted[T]) T {
	var zero T
	if len(options) == 0 {
		return zero
	}
	total := 0.0
	for _, o := range options {
		if o.Weight > 0 {
			total += o.Weight
		}
	}
	if total <= 0 {
		return options[0].Value
	}
	r := src.Float64() * total
	for _, o := range options {
		if o.Weight <= 0 {
			continue
		}
		if r < o.Weight {
			return o.Value
		}
		r -= o.Weight
	}
	for i := len(options) - 1; i >= 0; i-- {
		if options[i].Weight > 0 {
			return options[i].Value
		}
	}
	return zero
}
