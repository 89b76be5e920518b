package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/anicontrol/internal/anim"
)

// ErrInvalidManifest marks a manifest that does not describe a playable export.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest describes an exported frame sequence.
type Manifest struct {
	ID        string          `yaml:"id"`
	Source    string          `yaml:"source"`
	Format    string          `yaml:"format"`
	Width     int             `yaml:"width"`
	Height    int             `yaml:"height"`
	LoopCount int             `yaml:"loop_count"`
	Frames    []ManifestFrame `yaml:"frames"`
}

// ManifestFrame is one exported frame file and its display delay.
type ManifestFrame struct {
	File    string `yaml:"file"`
	DelayMS int64  `yaml:"delay_ms"` // 0 means the player default
}

// Delays returns the per-frame delays with the player default applied.
func (m *Manifest) Delays() []time.Duration {
	out := make([]time.Duration, len(m.Frames))
	for i, f := range m.Frames {
		out[i] = anim.EffectiveDelay(time.Duration(f.DelayMS) * time.Millisecond)
	}
	return out
}

// Check verifies the header and that every frame file sits in dir.
func (m *Manifest) Check(dir string) error {
	if len(m.Frames) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, anim.ErrNoFrames)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, anim.ErrBadDimensions)
	}
	for i, f := range m.Frames {
		if f.File == "" || filepath.Base(f.File) != f.File {
			return fmt.Errorf("%w: frame %d: bad file name %q", ErrInvalidManifest, i, f.File)
		}
		if f.DelayMS < 0 {
			return fmt.Errorf("%w: frame %d: negative delay", ErrInvalidManifest, i)
		}
		if _, err := os.Stat(filepath.Join(dir, f.File)); err != nil {
			return fmt.Errorf("%w: frame %d: %w", ErrInvalidManifest, i, err)
		}
	}
	return nil
}

// WriteManifest stores m as YAML at path.
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest loads the manifest at path and checks it against the frame
// files next to it.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Check(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &m, nil
}
