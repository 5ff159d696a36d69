package presenter

import (
	"context"
	"image"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/lectern/internal/document"
)

// DefaultCapacity is the number of page rasters a Cache keeps.
const DefaultCapacity = 32

type surfaceKey struct {
	page int
	size image.Point
}

type job struct {
	gen      uint64
	key      surfaceKey
	physical int
	r        document.Rasterizer
}

// Cache keeps page rasters by logical page and pixel size. Prerendering
// happens on background workers; lookups and stores are safe from any
// goroutine.
type Cache struct {
	// Doc returns the document being shown. It is only called from the
	// UI goroutine.
	Doc func() *document.Document
	// Sizes lists the pixel sizes logical page i is drawn at.
	Sizes func(i int) []image.Point

	// mu makes the generation check and the store one step.
	mu       sync.Mutex
	gen      uint64
	surfaces *lru.Cache[surfaceKey, *image.RGBA]
	pending  map[surfaceKey]bool
	jobs     chan job
}

// NewCache starts workers rasterizing prerender requests until ctx is
// done.
func NewCache(ctx context.Context, workers int) *Cache {
	if workers <= 0 {
		workers = 1
	}
	surfaces, err := lru.New[surfaceKey, *image.RGBA](DefaultCapacity)
	if err != nil {
		panic(err)
	}
	c := &Cache{
		surfaces: surfaces,
		pending:  make(map[surfaceKey]bool),
		jobs:     make(chan job, 64),
	}
	for i := 0; i < workers; i++ {
		go c.work(ctx)
	}
	return c
}

func (c *Cache) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-c.jobs:
			dst := image.NewRGBA(image.Rectangle{Max: j.key.size})
			err := j.r.Rasterize(j.physical, dst)
			c.mu.Lock()
			delete(c.pending, j.key)
			stale := j.gen != c.gen
			c.mu.Unlock()
			if err != nil {
				log.Printf("prerender page %d: %v", j.physical+1, err)
				continue
			}
			if !stale {
				c.store(j.gen, j.key, dst)
			}
		}
	}
}

// Invalidate drops every raster and every queued render.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.surfaces.Purge()
	clear(c.pending)
}

// SetCapacity changes the number of rasters kept, evicting the least
// recently used ones beyond it. Values below one select DefaultCapacity.
func (c *Cache) SetCapacity(n int) {
	if n <= 0 {
		n = DefaultCapacity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surfaces.Resize(n)
}

// Prerender queues logical page i at each of its sizes.
func (c *Cache) Prerender(i int) {
	if c.Doc == nil || c.Sizes == nil {
		return
	}
	doc := c.Doc()
	r, ok := doc.Rasterizer()
	if !ok {
		return
	}
	page := doc.Page(i)
	if !page.CanRender() {
		return
	}
	for _, sz := range c.Sizes(i) {
		if sz.X <= 0 || sz.Y <= 0 {
			continue
		}
		key := surfaceKey{page: i, size: sz}
		c.mu.Lock()
		skip := c.surfaces.Contains(key) || c.pending[key]
		if !skip {
			c.pending[key] = true
		}
		gen := c.gen
		c.mu.Unlock()
		if skip {
			continue
		}
		select {
		case c.jobs <- job{gen: gen, key: key, physical: page.Physical, r: r}:
		default:
			c.mu.Lock()
			delete(c.pending, key)
			c.mu.Unlock()
		}
	}
}

// Surface returns the raster of logical page i at w×h, or nil.
func (c *Cache) Surface(i, w, h int) image.Image {
	img, ok := c.surfaces.Get(surfaceKey{page: i, size: image.Pt(w, h)})
	if !ok {
		return nil
	}
	return img
}

// Put keeps img as the raster of logical page i at its size.
func (c *Cache) Put(i int, img *image.RGBA) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.store(gen, surfaceKey{page: i, size: img.Bounds().Size()}, img)
}

func (c *Cache) store(gen uint64, key surfaceKey, img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.surfaces.Add(key, img)
}

// Len returns the number of rasters held.
func (c *Cache) Len() int { return c.surfaces.Len() }
