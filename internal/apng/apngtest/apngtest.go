// Package apngtest builds small RGBA APNG streams for tests.
package apngtest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/draw"
)

// Frame describes one frame to encode. Image bounds give the patch size.
type Frame struct {
	Image    image.Image
	Left     int
	Top      int
	DelayNum uint16
	DelayDen uint16
	Dispose  uint8
	Blend    uint8
}

// Build encodes an 8-bit RGBA APNG. When defaultIsFrame is false an extra
// canvas-sized transparent IDAT image is written that is not part of the
// animation.
func Build(width, height int, frames []Frame, defaultIsFrame bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolour with alpha
	chunk(&buf, "IHDR", ihdr)

	actl := make([]byte, 8)
	binary.BigEndian.PutUint32(actl[0:4], uint32(len(frames)))
	chunk(&buf, "acTL", actl)

	var seq uint32
	for i, f := range frames {
		b := f.Image.Bounds()
		fctl := make([]byte, 26)
		binary.BigEndian.PutUint32(fctl[0:4], seq)
		binary.BigEndian.PutUint32(fctl[4:8], uint32(b.Dx()))
		binary.BigEndian.PutUint32(fctl[8:12], uint32(b.Dy()))
		binary.BigEndian.PutUint32(fctl[12:16], uint32(f.Left))
		binary.BigEndian.PutUint32(fctl[16:20], uint32(f.Top))
		binary.BigEndian.PutUint16(fctl[20:22], f.DelayNum)
		binary.BigEndian.PutUint16(fctl[22:24], f.DelayDen)
		fctl[24] = f.Dispose
		fctl[25] = f.Blend

		if i == 0 && !defaultIsFrame {
			chunk(&buf, "IDAT", pixels(image.NewNRGBA(image.Rect(0, 0, width, height))))
		}
		chunk(&buf, "fcTL", fctl)
		seq++

		data := pixels(f.Image)
		if i == 0 && defaultIsFrame {
			chunk(&buf, "IDAT", data)
			continue
		}
		fdat := make([]byte, 4+len(data))
		binary.BigEndian.PutUint32(fdat[0:4], seq)
		copy(fdat[4:], data)
		chunk(&buf, "fdAT", fdat)
		seq++
	}

	chunk(&buf, "IEND", nil)
	return buf.Bytes()
}

// Static encodes a plain RGBA PNG with no animation chunks.
func Static(img image.Image) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	b := img.Bounds()
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(b.Dy()))
	ihdr[8] = 8
	ihdr[9] = 6
	chunk(&buf, "IHDR", ihdr)
	chunk(&buf, "IDAT", pixels(img))
	chunk(&buf, "IEND", nil)
	return buf.Bytes()
}

// pixels returns zlib-compressed, filter-type-0 NRGBA scanlines.
func pixels(img image.Image) []byte {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	var raw bytes.Buffer
	for y := 0; y < b.Dy(); y++ {
		raw.WriteByte(0)
		raw.Write(nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4])
	}

	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	zw.Write(raw.Bytes())
	zw.Close()
	return out.Bytes()
}

func chunk(buf *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(data)))
	copy(hdr[4:], typ)
	buf.Write(hdr[:])
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
}
