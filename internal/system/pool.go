package system

import (
	"image"
	"sync"
)

// ImagePool переиспользует RGBA-буферы поверхности отображения между кадрами.
// Буферы группируются по размеру; Put для неизвестного размера игнорируется.
type ImagePool struct {
	mu    sync.Mutex
	pools map[image.Point]*sync.Pool
}

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.pools[size]
	if !ok {
		sp = &sync.Pool{
			New: func() any {
				return image.NewRGBA(image.Rectangle{Max: size})
			},
		}
		p.pools[size] = sp
	}
	return sp
}

// Get возвращает буфер размером size. Содержимое не очищается.
func (p *ImagePool) Get(size image.Point) *image.RGBA {
	return p.pool(size).Get().(*image.RGBA)
}

// Put возвращает буфер в пул.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	p.mu.Lock()
	sp, ok := p.pools[img.Rect.Size()]
	p.mu.Unlock()
	if ok {
		sp.Put(img)
	}
}
