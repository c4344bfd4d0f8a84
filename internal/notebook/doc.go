// Package notebook declares the interactive correlation demo graph: two
// slider-driven value cells feed a synthetic dataset cell, whose Pearson
// correlation fans out into a markdown summary, a scatter-plot description,
// and a data preview.
package notebook
