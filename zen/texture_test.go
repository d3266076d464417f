package zen

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"
)

func ztex(format TextureFormat, w, h, mipmaps uint32, payload ...[]byte) []byte {
	var buf bytes.Buffer
	hdr := TextureHeader{Format: format, Width: w, Height: h, MipmapCount: mipmaps, ReferenceWidth: w, ReferenceHeight: h}
	copy(hdr.Signature[:], ztexSignature)
	binary.Write(&buf, binary.LittleEndian, &hdr)
	for _, p := range payload {
		buf.Write(p)
	}
	return buf.Bytes()
}

func TestDecodeTextureBGRA(t *testing.T) {
	// 2x1, one mipmap
	data := ztex(TextureB8G8R8A8, 2, 1, 1, []byte{
		10, 20, 30, 255,
		1, 2, 3, 128,
	})
	img, err := DecodeTexture(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Fatal("unexpected size", img.Bounds())
	}
	if c := img.At(0, 0).(color.NRGBA); c != (color.NRGBA{30, 20, 10, 255}) {
		t.Error("pixel 0:", c)
	}
	if c := img.At(1, 0).(color.NRGBA); c != (color.NRGBA{3, 2, 1, 128}) {
		t.Error("pixel 1:", c)
	}
}

func TestDecodeTextureSkipsSmallMipmaps(t *testing.T) {
	// 2x2 RGB8 with a 1x1 mipmap stored first
	data := ztex(TextureR8G8B8, 2, 2, 2,
		[]byte{9, 9, 9},
		[]byte{
			255, 0, 0, 0, 255, 0,
			0, 0, 255, 255, 255, 255,
		})
	img, err := DecodeTexture(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if c := img.At(1, 0).(color.NRGBA); c != (color.NRGBA{0, 255, 0, 255}) {
		t.Error("pixel (1,0):", c)
	}
	if c := img.At(0, 1).(color.NRGBA); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Error("pixel (0,1):", c)
	}
}

func TestDecodeTextureDXT1(t *testing.T) {
	block := make([]byte, 8)
	binary.LittleEndian.PutUint16(block[0:], 0xf800) // red
	binary.LittleEndian.PutUint16(block[2:], 0x001f) // blue
	binary.LittleEndian.PutUint32(block[4:], 0x00000001)

	img, err := DecodeTexture(bytes.NewReader(ztex(TextureDXT1, 4, 4, 1, block)))
	if err != nil {
		t.Fatal(err)
	}
	if c := img.At(0, 0).(color.NRGBA); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Error("pixel (0,0):", c)
	}
	if c := img.At(1, 0).(color.NRGBA); c != (color.NRGBA{255, 0, 0, 255}) {
		t.Error("pixel (1,0):", c)
	}
}

func TestDecodeTextureDXT5Alpha(t *testing.T) {
	block := make([]byte, 16)
	block[0], block[1] = 255, 0 // alpha endpoints, index 0 everywhere
	binary.LittleEndian.PutUint16(block[8:], 0xffff)
	binary.LittleEndian.PutUint16(block[10:], 0x0000)

	img, err := DecodeTexture(bytes.NewReader(ztex(TextureDXT5, 4, 4, 1, block)))
	if err != nil {
		t.Fatal(err)
	}
	if c := img.At(3, 3).(color.NRGBA); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Error("pixel (3,3):", c)
	}
}

func TestDecodeTexturePalette(t *testing.T) {
	palette := make([]byte, 256*4)
	copy(palette[4:], []byte{1, 2, 3, 255}) // entry 1: b g r a
	data := ztex(TextureP8, 1, 1, 1, palette, []byte{1})
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if c := img.At(0, 0).(color.NRGBA); c != (color.NRGBA{3, 2, 1, 255}) {
		t.Error("pixel:", c)
	}
}

func TestDecodeTextureErrors(t *testing.T) {
	if _, err := DecodeTexture(bytes.NewReader([]byte("ZTEX"))); err == nil {
		t.Error("truncated header should fail")
	}
	bad := ztex(TextureB8G8R8A8, 1, 1, 1, []byte{0, 0, 0, 0})
	copy(bad, "XTEZ")
	if _, err := DecodeTexture(bytes.NewReader(bad)); err == nil {
		t.Error("bad signature should fail")
	}
	if _, err := DecodeTexture(bytes.NewReader(ztex(TextureB8G8R8A8, 2, 2, 1, []byte{1, 2}))); err == nil {
		t.Error("truncated pixels should fail")
	}
}
