package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/slidegrid/pkg/errors"
)

// Text limits applied by [Payload.Validate].
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
	MaxLabelLen       = 200
)

// Payload is the input document: an optional cover with its title, followed by
// an ordered list of products.
type Payload struct {
	CoverImage  string    `json:"cover_image,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Items       []Product `json:"items"`
}

// Product is one catalogue entry. A product with at least one option occupies
// two adjacent cells.
type Product struct {
	MainImage   string   `json:"main_image"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []Option `json:"options,omitempty"`
}

// Option is a labelled variant of a product.
type Option struct {
	Label string `json:"label"`
	Image string `json:"image"`
}

// ReadPayload decodes a JSON payload from r.
func ReadPayload(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode payload")
	}
	return &p, nil
}

// ReadPayloadFile decodes the JSON payload stored at path.
func ReadPayloadFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "payload %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadPayload(f)
}

// Validate checks every image reference and text field. Empty image
// references are allowed; the corresponding image is skipped.
func (p *Payload) Validate() error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidPayload, "payload is nil")
	}
	if err := validateRef("cover_image", p.CoverImage); err != nil {
		return err
	}
	if err := errors.ValidateText("title", p.Title, MaxTitleLen); err != nil {
		return err
	}
	if err := errors.ValidateText("description", p.Description, MaxDescriptionLen); err != nil {
		return err
	}
	for i, it := range p.Items {
		field := fmt.Sprintf("items[%d]", i)
		if err := validateRef(field+".main_image", it.MainImage); err != nil {
			return err
		}
		if err := errors.ValidateText(field+".title", it.Title, MaxTitleLen); err != nil {
			return err
		}
		if err := errors.ValidateText(field+".description", it.Description, MaxDescriptionLen); err != nil {
			return err
		}
		for j, opt := range it.Options {
			of := fmt.Sprintf("%s.options[%d]", field, j)
			if err := validateRef(of+".image", opt.Image); err != nil {
				return err
			}
			if err := errors.ValidateText(of+".label", opt.Label, MaxLabelLen); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateRef(field, ref string) error {
	if ref == "" {
		return nil
	}
	if err := errors.ValidateImageRef(ref); err != nil {
		return errors.Wrap(errors.GetCode(err), err, "%s", field)
	}
	return nil
}

// CoverTitle returns the text drawn above the cover: the title, followed by
// " - description" when a description is set.
func (p *Payload) CoverTitle() string {
	if p.Description == "" {
		return p.Title
	}
	return p.Title + " - " + p.Description
}

// ImageRefs returns every non-empty image reference in placement order,
// without duplicates.
func (p *Payload) ImageRefs() []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(ref string) {
		if ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	add(p.CoverImage)
	for _, it := range p.Items {
		add(it.MainImage)
		for _, opt := range it.Options {
			add(opt.Image)
		}
	}
	return refs
}

// OptionCount returns the total number of options across all products.
func (p *Payload) OptionCount() int {
	n := 0
	for _, it := range p.Items {
		n += len(it.Options)
	}
	return n
}
