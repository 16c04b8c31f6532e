package syntax

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/log"
	"github.com/ardnew/bindc/pkg"
)

// ErrReadInput is returned when binding text cannot be read.
var ErrReadInput = pkg.NewError("read input")

// Cache parses binding text once per distinct source. Syntax trees are
// immutable, so a cached tree is shared by every caller parsing the same
// text. A Cache is safe for concurrent use.
type Cache struct {
	entries sync.Map // source hash -> *entry
	logger  log.Logger
}

// entry tracks the parse of one source.
type entry struct {
	once sync.Once
	node ast.Node
	err  error
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the logger tracing cache lookups.
func WithLogger(logger log.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache returns an empty Cache.
func NewCache(opts ...CacheOption) *Cache {
	c := new(Cache)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Parse returns the syntax tree of src, parsing it on first use.
func (c *Cache) Parse(ctx context.Context, src string) (ast.Node, error) {
	hash := xxh3.HashString(src)
	key := strconv.FormatUint(hash, 36)

	value, hit := c.entries.LoadOrStore(key, new(entry))
	e := value.(*entry)

	c.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() {
		e.node, e.err = Parse(src)
	})

	return e.node, e.err
}

// ParseReader reads r to the end and parses its content as one binding.
func (c *Cache) ParseReader(ctx context.Context, r io.Reader) (ast.Node, error) {
	// Read ahead asynchronously while earlier chunks are consumed.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	c.logger.TraceContext(ctx, "read input", slog.Int("source_bytes", len(data)))

	return c.Parse(ctx, string(data))
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Clear removes every cached tree.
func (c *Cache) Clear() {
	c.entries.Clear()
}
