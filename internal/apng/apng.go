// Package apng splits an Animated PNG stream into per-frame PNG streams.
//
// Inflating and unfiltering the pixel data is left to image/png: every frame
// is re-wrapped as a standalone PNG (shared IHDR fields, palette and colour
// chunks, frame IDAT data) so frames can be decoded independently and in
// parallel. Blending and disposal are not applied here.
//
// See https://wiki.mozilla.org/APNG_Specification
package apng

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"time"

	"github.com/ivlev/anicontrol/internal/anim"
)

const Signature = "\x89PNG\r\n\x1a\n"

// FormatError reports a structurally invalid stream.
type FormatError string

func (e FormatError) Error() string { return "apng: invalid format: " + string(e) }

// ErrNotAnimated is returned for valid PNGs without an acTL chunk.
var ErrNotAnimated = errors.New("apng: not an animated PNG")

// DisposeOp is the fcTL dispose operator.
type DisposeOp uint8

const (
	DisposeNone       DisposeOp = 0
	DisposeBackground DisposeOp = 1
	DisposePrevious   DisposeOp = 2
)

// BlendOp is the fcTL blend operator.
type BlendOp uint8

const (
	BlendSource BlendOp = 0
	BlendOver   BlendOp = 1
)

// Animation is a parsed but not yet decoded APNG.
type Animation struct {
	Width    int
	Height   int
	NumPlays int // 0 = infinite
	Frames   []*Frame
}

// Frame is one fcTL-delimited frame record.
type Frame struct {
	Width, Height int
	Left, Top     int
	Delay         time.Duration
	Dispose       DisposeOp
	Blend         BlendOp

	ihdr []byte   // canvas IHDR payload, width/height patched on rebuild
	pre  [][]byte // raw ancillary chunks (length+type+data+crc) preceding image data
	data [][]byte // IDAT/fdAT payloads, sequence numbers stripped
}

// Bounds is the frame rectangle on the canvas.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(f.Left, f.Top, f.Left+f.Width, f.Top+f.Height)
}

// Image decodes the frame's patch. Safe for concurrent use across frames.
func (f *Frame) Image() (image.Image, error) {
	var buf bytes.Buffer
	buf.WriteString(Signature)

	ihdr := make([]byte, len(f.ihdr))
	copy(ihdr, f.ihdr)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(f.Width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(f.Height))
	writeChunk(&buf, "IHDR", ihdr)

	for _, c := range f.pre {
		buf.Write(c)
	}
	for _, d := range f.data {
		writeChunk(&buf, "IDAT", d)
	}
	writeChunk(&buf, "IEND", nil)

	return png.Decode(&buf)
}

// chunks copied into every rebuilt frame; all must precede IDAT
var sharedChunks = map[string]bool{
	"PLTE": true, "tRNS": true, "gAMA": true, "cHRM": true,
	"sRGB": true, "iCCP": true, "sBIT": true,
}

// Parse validates the chunk structure of data and collects frame records.
func Parse(data []byte) (*Animation, error) {
	if len(data) < len(Signature) || string(data[:len(Signature)]) != Signature {
		return nil, FormatError("not a PNG file")
	}

	var (
		a       Animation
		ihdr    []byte
		pre     [][]byte
		cur     *Frame
		animate bool
		sawIDAT bool
		ended   bool
	)

	off := len(Signature)
	for off < len(data) && !ended {
		if len(data)-off < 12 {
			return nil, FormatError("truncated chunk header")
		}
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		if length < 0 || off+12+length > len(data) {
			return nil, FormatError("chunk length out of range")
		}
		typ := string(data[off+4 : off+8])
		body := data[off+8 : off+8+length]
		sum := binary.BigEndian.Uint32(data[off+8+length : off+12+length])
		if crc32.ChecksumIEEE(data[off+4:off+8+length]) != sum {
			return nil, FormatError("bad CRC in " + typ)
		}
		raw := data[off : off+12+length]
		off += 12 + length

		switch typ {
		case "IHDR":
			if length != 13 {
				return nil, FormatError("bad IHDR length")
			}
			ihdr = body
			a.Width = int(binary.BigEndian.Uint32(body[0:4]))
			a.Height = int(binary.BigEndian.Uint32(body[4:8]))
		case "acTL":
			if length != 8 {
				return nil, FormatError("bad acTL length")
			}
			animate = true
			a.NumPlays = int(binary.BigEndian.Uint32(body[4:8]))
		case "fcTL":
			if length != 26 {
				return nil, FormatError("bad fcTL length")
			}
			if cur != nil && len(cur.data) == 0 {
				return nil, FormatError("frame without image data")
			}
			cur = parseFCTL(body)
			a.Frames = append(a.Frames, cur)
		case "IDAT":
			sawIDAT = true
			// IDAT belongs to the animation only when fcTL came first.
			if cur != nil && len(a.Frames) == 1 {
				cur.data = append(cur.data, body)
			}
		case "fdAT":
			if length < 4 {
				return nil, FormatError("bad fdAT length")
			}
			if cur == nil {
				return nil, FormatError("fdAT before fcTL")
			}
			cur.data = append(cur.data, body[4:])
		case "IEND":
			ended = true
		default:
			if !sawIDAT && sharedChunks[typ] {
				pre = append(pre, raw)
			}
		}
	}

	if ihdr == nil {
		return nil, FormatError("missing IHDR")
	}
	if !animate {
		return nil, ErrNotAnimated
	}
	if len(a.Frames) == 0 {
		return nil, FormatError("no frames")
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, FormatError("non-positive canvas size")
	}
	if anim.CanvasTooLarge(a.Width, a.Height) {
		return nil, FormatError("canvas too large")
	}

	canvas := image.Rect(0, 0, a.Width, a.Height)
	for _, f := range a.Frames {
		if len(f.data) == 0 {
			return nil, FormatError("frame without image data")
		}
		if f.Width <= 0 || f.Height <= 0 || !f.Bounds().In(canvas) {
			return nil, FormatError("frame outside canvas")
		}
		f.ihdr = ihdr
		f.pre = pre
	}
	return &a, nil
}

func parseFCTL(b []byte) *Frame {
	num := binary.BigEndian.Uint16(b[20:22])
	den := binary.BigEndian.Uint16(b[22:24])
	if den == 0 {
		den = 100
	}
	return &Frame{
		Width:   int(binary.BigEndian.Uint32(b[4:8])),
		Height:  int(binary.BigEndian.Uint32(b[8:12])),
		Left:    int(binary.BigEndian.Uint32(b[12:16])),
		Top:     int(binary.BigEndian.Uint32(b[16:20])),
		Delay:   time.Duration(num) * time.Second / time.Duration(den),
		Dispose: DisposeOp(b[24]),
		Blend:   BlendOp(b[25]),
	}
}

func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(data)))
	copy(hdr[4:8], typ)
	buf.Write(hdr[:])
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:8])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
}
