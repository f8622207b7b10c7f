package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Loader resolves asset references to decoded images and keeps them cached.
//
// A reference is a path, optionally followed by #N to pick a 1-based page:
//
//	logo.png
//	deck.pdf#3
//	slides/#2
type Loader struct {
	DPI int

	mu    sync.Mutex
	cache map[string]image.Image
}

func NewLoader(dpi int) *Loader {
	return &Loader{DPI: dpi, cache: make(map[string]image.Image)}
}

// Resolve returns the image for ref, decoding it on first use
func (l *Loader) Resolve(ref string) (image.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if img, ok := l.cache[ref]; ok {
		return img, nil
	}

	img, err := l.load(ref)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", ref, err)
	}
	l.cache[ref] = img
	return img, nil
}

// Cached reports how many assets are held
func (l *Loader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

func (l *Loader) load(ref string) (image.Image, error) {
	path, page, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var src Source
	switch {
	case fi.IsDir():
		src, err = NewImageSource(path)
	case strings.EqualFold(filepath.Ext(path), ".pdf"):
		src, err = NewFitzPDFSource(path)
	default:
		if page != 1 {
			return nil, fmt.Errorf("page %d requested from a single image", page)
		}
		return decodeFile(path)
	}
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dpi := l.DPI
	if dpi <= 0 {
		dpi = 72
	}
	return src.RenderPage(page-1, dpi)
}

// ParseRef splits an asset reference into its path and 1-based page
func ParseRef(ref string) (string, int, error) {
	if ref == "" {
		return "", 0, fmt.Errorf("empty asset reference")
	}
	path, pageStr, found := strings.Cut(ref, "#")
	if !found {
		return ref, 1, nil
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return "", 0, fmt.Errorf("invalid page %q", pageStr)
	}
	if path == "" {
		return "", 0, fmt.Errorf("missing path before #%d", page)
	}
	return path, page, nil
}
