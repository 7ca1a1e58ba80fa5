package layout

import (
	"fmt"
	"math/rand/v2"
)

// Demo payload defaults.
const (
	DefaultDemoProducts = 20
	DefaultDemoSeed     = uint64(42)
	DefaultDemoImage    = "sample.png"
)

// DemoOptions controls [Demo].
type DemoOptions struct {
	Products   int
	Seed       uint64
	Image      string
	MaxOptions int
}

// Demo builds a sample catalogue: every product shares one image, and about
// half of them carry between one and MaxOptions options. The same options
// always produce the same payload.
func Demo(opts DemoOptions) *Payload {
	if opts.Products <= 0 {
		opts.Products = DefaultDemoProducts
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultDemoSeed
	}
	if opts.Image == "" {
		opts.Image = DefaultDemoImage
	}
	if opts.MaxOptions <= 0 {
		opts.MaxOptions = DefaultSubRows * DefaultSubCols
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	items := make([]Product, opts.Products)
	for k := range items {
		var options []Option
		if rng.Float64() >= 0.5 {
			n := rng.IntN(opts.MaxOptions) + 1
			options = make([]Option, n)
			for j := range options {
				options[j] = Option{
					Label: fmt.Sprintf("Option %d", j+1),
					Image: opts.Image,
				}
			}
		}
		items[k] = Product{
			MainImage:   opts.Image,
			Title:       fmt.Sprintf("Product 01-%d", k+1),
			Description: fmt.Sprintf("Description of product 01-%d", k+1),
			Options:     options,
		}
	}

	return &Payload{
		CoverImage:  opts.Image,
		Title:       "Product 01",
		Description: "Description of product 01",
		Items:       items,
	}
}
