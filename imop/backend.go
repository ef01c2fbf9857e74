package imop

import (
	"fmt"
	"image"
	"sort"
	"sync"
)

// Inpainter synthesizes the pixels of src covered by mask from their surroundings.
type Inpainter interface {
	Inpaint(src *image.NRGBA, mask *Mask, radius int) (*image.NRGBA, error)
}

// Cloner blends src into dst at the given top-left point so that no seam is visible
// along the boundary of mask.
type Cloner interface {
	SeamlessClone(src, dst *image.NRGBA, mask *Mask, at image.Point) error
}

// Remapper resamples src through a sampling field, mirroring samples that fall
// outside src back inside.
type Remapper interface {
	Remap(src *image.NRGBA, f *Field) (*image.NRGBA, error)
}

// Dilator grows a mask with a square ksize×ksize structuring element, iterations times.
type Dilator interface {
	Dilate(m *Mask, ksize, iterations int) (*Mask, error)
}

// Backend groups the implementations of the heavy operations.
type Backend struct {
	Name      string
	Inpainter Inpainter
	Cloner    Cloner
	Remapper  Remapper
	Dilator   Dilator
}

// Bilinear is the pure Go Remapper.
type Bilinear struct{}

// Remap implements Remapper.
func (Bilinear) Remap(src *image.NRGBA, f *Field) (*image.NRGBA, error) {
	return Remap(src, f), nil
}

// MaxFilter is the pure Go Dilator.
type MaxFilter struct{}

// Dilate implements Dilator.
func (MaxFilter) Dilate(m *Mask, ksize, iterations int) (*Mask, error) {
	return m.Dilate(ksize, iterations), nil
}

// DefaultBackend is the pure Go implementation, always available.
const DefaultBackend = "go"

var (
	mu       sync.RWMutex
	backends = map[string]Backend{
		DefaultBackend: {
			Name:      DefaultBackend,
			Inpainter: Telea{},
			Cloner:    NewPoisson(),
			Remapper:  Bilinear{},
			Dilator:   MaxFilter{},
		},
	}
)

// Register makes a backend available by name. Registering an existing name replaces it.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	backends[b.Name] = b
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	mu.RLock()
	defer mu.RUnlock()
	if name == "" {
		name = DefaultBackend
	}
	b, ok := backends[name]
	if !ok {
		return Backend{}, fmt.Errorf("unknown image backend %q, available: %v", name, backendNames())
	}
	return b, nil
}

// Backends lists the registered backend names.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	return backendNames()
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
