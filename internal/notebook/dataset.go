package notebook

import "math/rand"

// slope of the underlying linear relation between x and y.
const slope = 2.0

// Row is one (x, y) observation.
type Row struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dataset holds the synthetic observations column-wise.
type Dataset struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.X) }

// Head returns the first n rows, or all rows if fewer exist.
func (d *Dataset) Head(n int) []Row {
	if n > d.Len() {
		n = d.Len()
	}
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{X: d.X[i], Y: d.Y[i]}
	}
	return rows
}

// Generate produces a synthetic linearly-correlated dataset of length n:
// x ~ N(0, 1) and y = slope*x + N(0, sigma). The fixed seed makes repeated
// generation with unchanged parameters bit-identical.
func Generate(n int, sigma float64, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	d := &Dataset{
		X: make([]float64, n),
		Y: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		d.X[i] = rng.NormFloat64()
	}
	for i := 0; i < n; i++ {
		d.Y[i] = slope*d.X[i] + sigma*rng.NormFloat64()
	}
	return d
}
