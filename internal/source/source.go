package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/anicontrol/internal/anim"
)

// Kind is the container family detected by Sniff.
type Kind int

const (
	Unsupported Kind = iota
	GIF
	PNG // PNG or APNG; the APNG parser decides which
)

func (k Kind) String() string {
	switch k {
	case GIF:
		return "gif"
	case PNG:
		return "png"
	default:
		return "unsupported"
	}
}

const pngMagic = "\x89PNG"

// Extensions accepted by the file picker and by FindLatestAnimation.
var Extensions = []string{".gif", ".png", ".apng"}

// Sniff classifies data by its leading bytes and falls back to the file
// extension when the signature is missing or truncated.
func Sniff(data []byte, name string) Kind {
	switch {
	case len(data) >= 3 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F':
		return GIF
	case len(data) >= len(pngMagic) && bytes.Equal(data[:len(pngMagic)], []byte(pngMagic)):
		return PNG
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".gif":
		return GIF
	case ".png", ".apng":
		return PNG
	}
	return Unsupported
}

// Input is one uploaded file held in memory.
type Input struct {
	Name string
	Data []byte
}

// ReadFile loads path into an Input named after its base name.
func ReadFile(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Input{Name: filepath.Base(path), Data: data}, nil
}

// Kind sniffs the input, returning ErrUnsupportedFormat for unknown data.
func (in *Input) Kind() (Kind, error) {
	k := Sniff(in.Data, in.Name)
	if k == Unsupported {
		return k, fmt.Errorf("%s: %w", in.Name, anim.ErrUnsupportedFormat)
	}
	return k, nil
}
