package render

import (
	"context"
	"image"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
)

// imageSet loads each reference at most once per render.
type imageSet struct {
	src     imageprobe.Source
	raw     map[string][]byte
	decoded map[string]image.Image
}

func newImageSet(src imageprobe.Source) *imageSet {
	return &imageSet{src: src, raw: map[string][]byte{}, decoded: map[string]image.Image{}}
}

// enabled reports whether images are drawn or replaced by placeholders.
func (s *imageSet) enabled() bool { return s.src != nil }

func (s *imageSet) bytes(ctx context.Context, ref string) ([]byte, error) {
	if data, ok := s.raw[ref]; ok {
		return data, nil
	}
	data, err := imageprobe.ReadAll(ctx, s.src, ref)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageRead, err, "load %s", ref)
	}
	s.raw[ref] = data
	return data, nil
}

func (s *imageSet) image(ctx context.Context, ref string) (image.Image, error) {
	if img, ok := s.decoded[ref]; ok {
		return img, nil
	}
	data, err := s.bytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := imageprobe.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageRead, err, "%s", ref)
	}
	s.decoded[ref] = img
	return img, nil
}
