// Package fonts exposes the embedded font set. Fonts are compiled in; there
// is no on-disk asset loading.
package fonts

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var registry = map[string][]byte{
	"mono":      gomono.TTF,
	"mono-bold": gomonobold.TTF,
	"regular":   goregular.TTF,
	"bold":      gobold.TTF,
}

var (
	parsedMu sync.Mutex
	parsed   = map[string]*opentype.Font{}
)

func Exists(id string) bool {
	_, ok := registry[id]
	return ok
}

func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Face builds a new face at the given pixel size. Faces are not safe for
// concurrent use, so each caller gets its own; only the parsed font is
// shared.
func Face(id string, sizePx float64) (font.Face, error) {
	f, err := parse(id)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face for %q: %w", id, err)
	}
	return face, nil
}

func parse(id string) (*opentype.Font, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()

	if f, ok := parsed[id]; ok {
		return f, nil
	}
	data, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown font %q", id)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", id, err)
	}
	parsed[id] = f
	return f, nil
}
