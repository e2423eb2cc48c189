// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package tiles

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
)

func key(x int) Key {
	return Key{Metric: canvas.Singulation, Address: geo.TileAddress{X: x, Y: 1, Zoom: 20}}
}

func TestCacheVersioning(t *testing.T) {
	t.Parallel()
	c := NewCache(8, time.Minute)

	c.Add(key(1), 3, []byte("v3"))
	if got, ok := c.Get(key(1), 3); !ok || string(got) != "v3" {
		t.Fatalf("Get(v3) = %q, %v; want v3, true", got, ok)
	}
	if _, ok := c.Get(key(1), 4); ok {
		t.Error("Get() returned an entry rendered from an older layer version")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after stale read, want 0", c.Len())
	}

	c.Add(key(1), 5, []byte("v5"))
	c.Add(key(1), 4, []byte("v4"))
	if got, ok := c.Get(key(1), 5); !ok || string(got) != "v5" {
		t.Errorf("Get(v5) = %q, %v; an older render replaced a newer one", got, ok)
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats() = (%d, %d), want (2, 1)", hits, misses)
	}
}

func TestCacheEviction(t *testing.T) {
	t.Parallel()
	c := NewCache(2, time.Minute)

	c.Add(key(1), 1, []byte("a"))
	c.Add(key(2), 1, []byte("b"))
	c.Get(key(1), 1)
	c.Add(key(3), 1, []byte("c"))

	if _, ok := c.Get(key(2), 1); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get(key(1), 1); !ok {
		t.Error("recently used entry was evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", c.Len())
	}
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	c := NewCache(4, time.Second)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Add(key(1), 1, []byte("a"))
	now = now.Add(2 * time.Second)
	if _, ok := c.Get(key(1), 1); ok {
		t.Error("Get() returned an expired entry")
	}
}

func TestEncodePNG(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, geo.TileSize, geo.TileSize))
	img.SetRGBA(7, 9, blue)

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
	if r, g, b, a := decoded.At(7, 9).RGBA(); r != 0 || g != 0 || b != 0xffff || a != 0xffff {
		t.Errorf("decoded pixel = %v, want opaque blue", decoded.At(7, 9))
	}
}
