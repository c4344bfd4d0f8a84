package notebook

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aescanero/cellflow/internal/application/graph"
	"github.com/aescanero/cellflow/pkg/domain"
)

const (
	// DefaultSeed matches the original notebook's generator seed.
	DefaultSeed = 42

	previewRows = 12
)

// Config controls graph construction for the correlation notebook.
type Config struct {
	Manifest Manifest
	Seed     int64
}

// Plot is a render-ready scatter description. Drawing it is the
// presentation layer's job.
type Plot struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
	Points []Row  `json:"points"`
}

// Build declares the correlation notebook's cells on a fresh builder and
// finalizes the graph:
//
//	values (n, sigma) -> data -> analysis -> (summary + plot + preview)
func Build(cfg Config) (*graph.Graph, error) {
	if err := cfg.Manifest.Validate(); err != nil {
		return nil, err
	}
	declared := make(map[string]bool, len(cfg.Manifest.Values))
	for _, v := range cfg.Manifest.Values {
		declared[v.Name] = true
	}
	for _, required := range []string{"n", "sigma"} {
		if !declared[required] {
			return nil, fmt.Errorf("manifest must declare value cell %q", required)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = DefaultSeed
	}

	b := graph.NewBuilder()
	for _, v := range cfg.Manifest.Values {
		if err := b.DeclareValue(v.Name, v.Default); err != nil {
			return nil, err
		}
	}

	cells := []domain.CellSpec{
		{
			Name:    "data",
			Inputs:  []string{"n", "sigma"},
			Outputs: []string{"df"},
			Compute: func(ctx context.Context, in map[string]any) (map[string]any, error) {
				n, err := asInt(in["n"])
				if err != nil {
					return nil, fmt.Errorf("n: %w", err)
				}
				sigma, err := asFloat(in["sigma"])
				if err != nil {
					return nil, fmt.Errorf("sigma: %w", err)
				}
				if n < 2 {
					return nil, fmt.Errorf("sample size must be at least 2, got %d", n)
				}
				if sigma < 0 {
					return nil, fmt.Errorf("noise sigma must be non-negative, got %g", sigma)
				}
				return map[string]any{"df": Generate(n, sigma, seed)}, nil
			},
		},
		{
			Name:    "analysis",
			Inputs:  []string{"df"},
			Outputs: []string{"corr"},
			Compute: func(ctx context.Context, in map[string]any) (map[string]any, error) {
				df, err := asDataset(in["df"])
				if err != nil {
					return nil, err
				}
				corr, err := Pearson(df.X, df.Y)
				if err != nil {
					return nil, err
				}
				return map[string]any{"corr": corr}, nil
			},
		},
		{
			Name:    "summary",
			Inputs:  []string{"n", "sigma", "corr"},
			Outputs: []string{"md"},
			Compute: func(ctx context.Context, in map[string]any) (map[string]any, error) {
				n, err := asInt(in["n"])
				if err != nil {
					return nil, fmt.Errorf("n: %w", err)
				}
				sigma, err := asFloat(in["sigma"])
				if err != nil {
					return nil, fmt.Errorf("sigma: %w", err)
				}
				corr, err := asFloat(in["corr"])
				if err != nil {
					return nil, fmt.Errorf("corr: %w", err)
				}
				return map[string]any{"md": renderSummary(n, sigma, corr)}, nil
			},
		},
		{
			Name:    "plot",
			Inputs:  []string{"df"},
			Outputs: []string{"points"},
			Compute: func(ctx context.Context, in map[string]any) (map[string]any, error) {
				df, err := asDataset(in["df"])
				if err != nil {
					return nil, err
				}
				return map[string]any{"points": Plot{
					Title:  "Scatter plot of y vs x",
					XLabel: "x",
					YLabel: "y",
					Points: df.Head(df.Len()),
				}}, nil
			},
		},
		{
			Name:    "preview",
			Inputs:  []string{"df"},
			Outputs: []string{"rows"},
			Compute: func(ctx context.Context, in map[string]any) (map[string]any, error) {
				df, err := asDataset(in["df"])
				if err != nil {
					return nil, err
				}
				return map[string]any{"rows": df.Head(previewRows)}, nil
			},
		},
	}

	for _, c := range cells {
		if err := b.Register(c); err != nil {
			return nil, err
		}
	}
	return b.Finalize()
}

func renderSummary(n int, sigma, corr float64) string {
	return fmt.Sprintf(`# Interactive correlation demo

- Current sample size **n = %d**
- Current noise **σ = %.2f**
- Estimated Pearson correlation **r = %.3f**

> Increase σ to add noise and reduce correlation. Increase n to stabilize the estimate.

*Data flow:* `+"`values → data → analysis → (summary + plot + preview)`"+`
`, n, sigma, corr)
}

func asDataset(v any) (*Dataset, error) {
	df, ok := v.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("expected dataset, got %T", v)
	}
	return df, nil
}

// asInt coerces the scalar types an external input boundary may deliver.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("not a numeric scalar: %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("not a numeric scalar: %T", v)
	}
}
