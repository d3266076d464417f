package assets

import (
	"image"
	"io"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/binzume/zenconv/zen"
	"github.com/blezek/tga"
	"github.com/pkg/errors"

	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
)

// TextureExtensions are tried in order after the compiled "-c.tex" texture.
var TextureExtensions = []string{".tga", ".png", ".bmp", ".jpg", ".jpeg", ".psd", ".gif"}

// Texture returns the decoded image for a texture key.
func (r *Resolver) Texture(name string) (image.Image, error) {
	key := NormalizeKey(name)
	v, err := r.lookup(kindTexture, key, func() (interface{}, error) {
		names := []string{key + "-c.tex"}
		for _, ext := range TextureExtensions {
			names = append(names, key+ext)
		}
		f, found, err := r.open(names...)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, err := decodeImage(f, found)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", found)
		}
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func decodeImage(r io.Reader, name string) (image.Image, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "-c.tex"):
		return zen.DecodeTexture(r)
	case path.Ext(lower) == ".tga":
		// TGA has no magic number, image.Decode can't detect it.
		return tga.Decode(r)
	}
	img, _, err := image.Decode(r)
	return img, err
}
