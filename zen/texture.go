package zen

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
)

const ztexSignature = "ZTEX"

type TextureFormat uint32

const (
	TextureB8G8R8A8 TextureFormat = iota
	TextureR8G8B8A8
	TextureA8B8G8R8
	TextureA8R8G8B8
	TextureB8G8R8
	TextureR8G8B8
	TextureA4R4G4B4
	TextureA1R5G5B5
	TextureR5G6B5
	TextureP8
	TextureDXT1
	TextureDXT2
	TextureDXT3
	TextureDXT4
	TextureDXT5
)

// TextureHeader is the fixed ZTEX header.
type TextureHeader struct {
	Signature       [4]byte
	Version         uint32
	Format          TextureFormat
	Width           uint32
	Height          uint32
	MipmapCount     uint32
	ReferenceWidth  uint32
	ReferenceHeight uint32
	AverageColor    uint32
}

func init() {
	image.RegisterFormat("ztex", ztexSignature, DecodeTexture, DecodeTextureConfig)
}

func readTextureHeader(r io.Reader) (*TextureHeader, error) {
	var h TextureHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "ztex header")
	}
	if string(h.Signature[:]) != ztexSignature {
		return nil, errors.Errorf("ztex: invalid signature %q", h.Signature[:])
	}
	if h.Width == 0 || h.Height == 0 || h.Width > 1<<14 || h.Height > 1<<14 {
		return nil, errors.Errorf("ztex: invalid size %dx%d", h.Width, h.Height)
	}
	if h.MipmapCount == 0 {
		h.MipmapCount = 1
	}
	return &h, nil
}

func DecodeTextureConfig(r io.Reader) (image.Config, error) {
	h, err := readTextureHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: int(h.Width), Height: int(h.Height)}, nil
}

// MipmapSize returns the byte size of one mipmap level.
func (h *TextureHeader) MipmapSize(level int) int {
	w, h2 := h.mipmapDim(level)
	switch h.Format {
	case TextureB8G8R8A8, TextureR8G8B8A8, TextureA8B8G8R8, TextureA8R8G8B8:
		return w * h2 * 4
	case TextureB8G8R8, TextureR8G8B8:
		return w * h2 * 3
	case TextureA4R4G4B4, TextureA1R5G5B5, TextureR5G6B5:
		return w * h2 * 2
	case TextureP8:
		return w * h2
	case TextureDXT1:
		return blocks(w) * blocks(h2) * 8
	default:
		return blocks(w) * blocks(h2) * 16
	}
}

func (h *TextureHeader) mipmapDim(level int) (int, int) {
	w, h2 := int(h.Width)>>level, int(h.Height)>>level
	if w < 1 {
		w = 1
	}
	if h2 < 1 {
		h2 = 1
	}
	return w, h2
}

func blocks(n int) int {
	b := (n + 3) / 4
	if b < 1 {
		return 1
	}
	return b
}

// DecodeTexture decodes the largest mipmap of a ZTEX texture.
func DecodeTexture(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readTextureHeader(br)
	if err != nil {
		return nil, err
	}
	if h.Format > TextureDXT5 {
		return nil, errors.Errorf("ztex: unsupported format %d", h.Format)
	}

	var palette [256]color.NRGBA
	if h.Format == TextureP8 {
		var raw [256 * 4]byte
		if _, err := io.ReadFull(br, raw[:]); err != nil {
			return nil, errors.Wrap(err, "ztex palette")
		}
		for i := range palette {
			p := raw[i*4:]
			palette[i] = color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
		}
	}

	// mipmaps are stored smallest first
	for level := int(h.MipmapCount) - 1; level > 0; level-- {
		if _, err := br.Discard(h.MipmapSize(level)); err != nil {
			return nil, errors.Wrapf(err, "ztex mipmap %d", level)
		}
	}
	data := make([]byte, h.MipmapSize(0))
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, errors.Wrap(err, "ztex mipmap 0")
	}

	w, hh := int(h.Width), int(h.Height)
	img := image.NewNRGBA(image.Rect(0, 0, w, hh))
	switch h.Format {
	case TextureDXT1, TextureDXT2, TextureDXT3, TextureDXT4, TextureDXT5:
		decodeDXT(img, data, h.Format)
	default:
		decodePixels(img, data, h.Format, &palette)
	}
	return img, nil
}

func decodePixels(img *image.NRGBA, data []byte, format TextureFormat, palette *[256]color.NRGBA) {
	n := img.Rect.Dx() * img.Rect.Dy()
	for i := 0; i < n; i++ {
		var c color.NRGBA
		switch format {
		case TextureB8G8R8A8:
			p := data[i*4:]
			c = color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
		case TextureR8G8B8A8:
			p := data[i*4:]
			c = color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
		case TextureA8B8G8R8:
			p := data[i*4:]
			c = color.NRGBA{R: p[3], G: p[2], B: p[1], A: p[0]}
		case TextureA8R8G8B8:
			p := data[i*4:]
			c = color.NRGBA{R: p[1], G: p[2], B: p[3], A: p[0]}
		case TextureB8G8R8:
			p := data[i*3:]
			c = color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
		case TextureR8G8B8:
			p := data[i*3:]
			c = color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255}
		case TextureA4R4G4B4:
			v := binary.LittleEndian.Uint16(data[i*2:])
			c = color.NRGBA{R: expand4(v >> 8), G: expand4(v >> 4), B: expand4(v), A: expand4(v >> 12)}
		case TextureA1R5G5B5:
			v := binary.LittleEndian.Uint16(data[i*2:])
			c = color.NRGBA{R: expand5(v >> 10), G: expand5(v >> 5), B: expand5(v), A: uint8(v>>15) * 255}
		case TextureR5G6B5:
			c = rgb565(binary.LittleEndian.Uint16(data[i*2:]))
		case TextureP8:
			c = palette[data[i]]
		}
		copy(img.Pix[i*4:], []byte{c.R, c.G, c.B, c.A})
	}
}

func expand4(v uint16) uint8 {
	return uint8(v&0xf) * 17
}

func expand5(v uint16) uint8 {
	x := uint8(v & 0x1f)
	return x<<3 | x>>2
}

func rgb565(v uint16) color.NRGBA {
	r := uint8(v>>11) & 0x1f
	g := uint8(v>>5) & 0x3f
	b := uint8(v) & 0x1f
	return color.NRGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 255}
}

func decodeDXT(img *image.NRGBA, data []byte, format TextureFormat) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	blockSize := 16
	if format == TextureDXT1 {
		blockSize = 8
	}
	bw := blocks(w)
	for by := 0; by < blocks(h); by++ {
		for bx := 0; bx < bw; bx++ {
			block := data[(by*bw+bx)*blockSize:]
			var alpha [16]uint8
			colorBlock := block
			switch format {
			case TextureDXT1:
				for i := range alpha {
					alpha[i] = 255
				}
			case TextureDXT2, TextureDXT3:
				for i := 0; i < 16; i++ {
					alpha[i] = uint8((block[i/2]>>(4*(i%2)))&0xf) * 17
				}
				colorBlock = block[8:]
			default:
				decodeDXT5Alpha(block, &alpha)
				colorBlock = block[8:]
			}

			c0 := binary.LittleEndian.Uint16(colorBlock)
			c1 := binary.LittleEndian.Uint16(colorBlock[2:])
			var palette [4]color.NRGBA
			palette[0], palette[1] = rgb565(c0), rgb565(c1)
			if c0 > c1 || format != TextureDXT1 {
				palette[2] = mix(palette[0], palette[1], 2, 1, 3)
				palette[3] = mix(palette[0], palette[1], 1, 2, 3)
			} else {
				palette[2] = mix(palette[0], palette[1], 1, 1, 2)
				palette[3] = color.NRGBA{}
			}
			bits := binary.LittleEndian.Uint32(colorBlock[4:])

			for i := 0; i < 16; i++ {
				x, y := bx*4+i%4, by*4+i/4
				if x >= w || y >= h {
					continue
				}
				c := palette[(bits>>(2*uint(i)))&3]
				if c.A != 0 {
					c.A = alpha[i]
				}
				off := img.PixOffset(x, y)
				copy(img.Pix[off:], []byte{c.R, c.G, c.B, c.A})
			}
		}
	}
}

func decodeDXT5Alpha(block []byte, alpha *[16]uint8) {
	a0, a1 := int(block[0]), int(block[1])
	var table [8]uint8
	table[0], table[1] = uint8(a0), uint8(a1)
	if a0 > a1 {
		for i := 1; i < 7; i++ {
			table[i+1] = uint8(((7-i)*a0 + i*a1) / 7)
		}
	} else {
		for i := 1; i < 5; i++ {
			table[i+1] = uint8(((5-i)*a0 + i*a1) / 5)
		}
		table[6], table[7] = 0, 255
	}
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(block[2+i]) << (8 * uint(i))
	}
	for i := 0; i < 16; i++ {
		alpha[i] = table[(bits>>(3*uint(i)))&7]
	}
}

func mix(a, b color.NRGBA, wa, wb, d int) color.NRGBA {
	return color.NRGBA{
		R: uint8((int(a.R)*wa + int(b.R)*wb) / d),
		G: uint8((int(a.G)*wa + int(b.G)*wb) / d),
		B: uint8((int(a.B)*wa + int(b.B)*wb) / d),
		A: 255,
	}
}
