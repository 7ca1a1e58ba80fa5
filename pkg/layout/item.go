package layout

import "fmt"

// Kind tags the variants of [Item].
type Kind int

const (
	KindCover Kind = iota
	KindProduct
	KindOptionGroup
)

func (k Kind) String() string {
	switch k {
	case KindCover:
		return "cover"
	case KindProduct:
		return "product"
	case KindOptionGroup:
		return "options"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Item is one placeable unit of content. Only the fields relevant to Kind are
// set: a cover carries Image and its declared Rows × Cols span, a product
// carries its image, caption and options, an option group carries Options.
type Item struct {
	Kind        Kind
	Index       int
	Image       string
	Title       string
	Description string
	Options     []Option
	Rows, Cols  int
}

// CoverItem builds the cover item for p, or false when p has no cover image.
func CoverItem(p *Payload, rows, cols int) (Item, bool) {
	if p.CoverImage == "" {
		return Item{}, false
	}
	return Item{
		Kind:        KindCover,
		Image:       p.CoverImage,
		Title:       p.Title,
		Description: p.Description,
		Rows:        rows,
		Cols:        cols,
	}, true
}

// ProductItem builds the item for the i-th product.
func ProductItem(i int, pr Product) Item {
	return Item{
		Kind:        KindProduct,
		Index:       i,
		Image:       pr.MainImage,
		Title:       pr.Title,
		Description: pr.Description,
		Options:     pr.Options,
	}
}

// RequiredSpan returns the cell span the item needs. Products take one cell,
// or two columns when they have options. Option groups always fill the single
// cell next to their product.
func (it Item) RequiredSpan() (rowSpan, colSpan int) {
	switch it.Kind {
	case KindCover:
		return it.Rows, it.Cols
	case KindProduct:
		if len(it.Options) > 0 {
			return 1, 2
		}
		return 1, 1
	default:
		return 1, 1
	}
}

// OptionGroup returns the option group owned by a product, or false when the
// product has no options.
func (it Item) OptionGroup() (Item, bool) {
	if it.Kind != KindProduct || len(it.Options) == 0 {
		return Item{}, false
	}
	return Item{Kind: KindOptionGroup, Index: it.Index, Options: it.Options}, true
}

// Name identifies the item in instructions and error messages,
// e.g. "cover" or "items[3]".
func (it Item) Name() string {
	switch it.Kind {
	case KindCover:
		return "cover"
	case KindOptionGroup:
		return fmt.Sprintf("items[%d].options", it.Index)
	default:
		return fmt.Sprintf("items[%d]", it.Index)
	}
}
