package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var animExts = []string{".gif", ".png", ".apng"}

func TestFindLatestAnimation(t *testing.T) {
	dir := t.TempDir()
	files := []string{"old.gif", "newest.apng", "middle.png", "ignored.mp4"}

	base := time.Now().Add(-time.Hour)
	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := base.Add(time.Duration(i) * time.Minute)
		if name == "newest.apng" {
			modTime = base.Add(30 * time.Minute)
		}
		os.Chtimes(path, modTime, modTime)
	}
	os.Mkdir(filepath.Join(dir, "sub.gif"), 0755)

	latest, err := FindLatestAnimation(dir, animExts)
	if err != nil {
		t.Fatalf("FindLatestAnimation failed: %v", err)
	}
	if want := filepath.Join(dir, "newest.apng"); latest != want {
		t.Errorf("Expected %s, got %s", want, latest)
	}
}

func TestFindLatestAnimationEmpty(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0644)

	if _, err := FindLatestAnimation(dir, animExts); err == nil {
		t.Error("Expected error for folder without animations, got nil")
	}
	if _, err := FindLatestAnimation(filepath.Join(dir, "missing"), animExts); err == nil {
		t.Error("Expected error for missing folder, got nil")
	}
}

func TestImagePool(t *testing.T) {
	p := NewImagePool()
	size := image.Pt(8, 4)

	img := p.Get(size)
	if img.Rect != image.Rect(0, 0, 8, 4) {
		t.Fatalf("Expected 8x4 buffer, got %v", img.Rect)
	}
	p.Put(img)

	other := p.Get(image.Pt(2, 2))
	if other.Rect.Size() != image.Pt(2, 2) {
		t.Errorf("Expected 2x2 buffer, got %v", other.Rect)
	}

	// Buffers of unknown sizes are dropped.
	p.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	p.Put(nil)
}

func TestProcessMemory(t *testing.T) {
	rss, err := ProcessMemory()
	if err != nil {
		t.Skipf("process info unavailable: %v", err)
	}
	if rss == 0 {
		t.Error("Expected non-zero RSS")
	}
}
