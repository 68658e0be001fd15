package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/erraggy/oasgraph/internal/options"
	"github.com/erraggy/oasgraph/oaserrors"
)

const (
	// MaxRefDepth is the default maximum nesting depth while dereferencing.
	MaxRefDepth = 100
	// MaxCachedDocuments is the default maximum number of documents per run.
	MaxCachedDocuments = 100
	// MaxFileSize is the default maximum document size in bytes.
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

// Cache loads documents by absolute path or URL and keeps them for the rest
// of the run. Concurrent requests for the same document share one load, and
// only successfully decoded documents are stored.
type Cache struct {
	fs          FileSystem
	fetcher     *HTTPFetcher
	logger      Logger
	maxFileSize int64
	maxDocs     int

	mu    sync.RWMutex
	docs  map[string]*Document
	order []string

	group singleflight.Group
	loads atomic.Int64
}

// CacheOption configures a Cache.
type CacheOption func(*cacheConfig) error

type cacheConfig struct {
	fs          FileSystem
	logger      Logger
	resolveHTTP bool
	httpClient  *http.Client
	userAgent   string
	maxFileSize int64
	maxDocs     int
}

// WithFileSystem sets where local documents are read from. Defaults to OSFileSystem.
func WithFileSystem(fsys FileSystem) CacheOption {
	return func(c *cacheConfig) error {
		if err := options.NotNil("WithFileSystem", fsys == nil); err != nil {
			return err
		}
		c.fs = fsys
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) CacheOption {
	return func(c *cacheConfig) error {
		c.logger = l
		return nil
	}
}

// WithResolveHTTPRefs enables loading http(s) documents.
func WithResolveHTTPRefs(enabled bool) CacheOption {
	return func(c *cacheConfig) error {
		c.resolveHTTP = enabled
		return nil
	}
}

// WithHTTPClient sets the client used for remote documents.
func WithHTTPClient(client *http.Client) CacheOption {
	return func(c *cacheConfig) error {
		c.httpClient = client
		return nil
	}
}

// WithUserAgent sets the User-Agent header for remote documents.
func WithUserAgent(ua string) CacheOption {
	return func(c *cacheConfig) error {
		c.userAgent = ua
		return nil
	}
}

// WithMaxFileSize limits document size in bytes. Zero selects MaxFileSize.
func WithMaxFileSize(size int64) CacheOption {
	return func(c *cacheConfig) error {
		if err := options.NonNegative("WithMaxFileSize", size); err != nil {
			return err
		}
		c.maxFileSize = size
		return nil
	}
}

// WithMaxCachedDocuments limits how many documents a run may load.
// Zero selects MaxCachedDocuments.
func WithMaxCachedDocuments(n int) CacheOption {
	return func(c *cacheConfig) error {
		if err := options.NonNegative("WithMaxCachedDocuments", n); err != nil {
			return err
		}
		c.maxDocs = n
		return nil
	}
}

// NewCache returns an empty Cache.
func NewCache(opts ...CacheOption) (*Cache, error) {
	cfg := &cacheConfig{fs: OSFileSystem{}}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("parser: invalid options: %w", err)
		}
	}
	if cfg.maxFileSize == 0 {
		cfg.maxFileSize = MaxFileSize
	}
	if cfg.maxDocs == 0 {
		cfg.maxDocs = MaxCachedDocuments
	}

	c := &Cache{
		fs:          cfg.fs,
		logger:      OrNop(cfg.logger),
		maxFileSize: cfg.maxFileSize,
		maxDocs:     cfg.maxDocs,
		docs:        make(map[string]*Document),
	}
	if cfg.resolveHTTP {
		c.fetcher = &HTTPFetcher{
			Client:    cfg.httpClient,
			UserAgent: cfg.userAgent,
			MaxSize:   cfg.maxFileSize,
		}
	}
	return c, nil
}

// Key returns the cache key for location: the URL without its fragment, or
// the absolute file path.
func (c *Cache) Key(location string) (string, error) {
	if IsURL(location) {
		u, err := url.Parse(location)
		if err != nil {
			return "", err
		}
		u.Fragment = ""
		return u.String(), nil
	}
	return c.fs.Abs(location)
}

// Load returns the document at location, loading it on first request.
// When ctx is canceled Load returns ctx.Err(); a load abandoned this way
// is never stored as complete.
func (c *Cache) Load(ctx context.Context, location string) (*Document, error) {
	key, err := c.Key(location)
	if err != nil {
		return nil, &oaserrors.LoadError{Path: location, Message: "invalid location", Cause: err}
	}

	for {
		if doc, ok := c.Get(key); ok {
			return doc, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ch := c.group.DoChan(key, func() (any, error) {
			return c.load(ctx, key)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*Document), nil
			}
			// The shared load was run under another caller's context; retry
			// under ours if that caller gave up.
			if isContextErr(res.Err) && ctx.Err() == nil {
				continue
			}
			return nil, res.Err
		}
	}
}

func (c *Cache) load(ctx context.Context, key string) (*Document, error) {
	if doc, ok := c.Get(key); ok {
		return doc, nil
	}
	if c.Len() >= c.maxDocs {
		return nil, &oaserrors.ResourceLimitError{
			ResourceType: "cached_documents",
			Limit:        int64(c.maxDocs),
			Message:      "cannot load " + key,
		}
	}

	start := time.Now()
	data, format, err := c.read(ctx, key)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		var limitErr *oaserrors.ResourceLimitError
		if errors.As(err, &limitErr) {
			return nil, err
		}
		return nil, &oaserrors.LoadError{Path: key, Message: "cannot read document", Cause: err}
	}

	root, err := Decode(data)
	if err != nil {
		loadErr := &oaserrors.LoadError{Path: key, Message: "cannot decode document", Cause: err}
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			loadErr.Line = decodeErr.Line
			loadErr.Message = decodeErr.Message
			loadErr.Cause = decodeErr.Cause
		}
		return nil, loadErr
	}
	if format == SourceFormatUnknown {
		format = detectFormatFromContent(data)
	}

	doc := &Document{
		Path:     key,
		Root:     root,
		Format:   format,
		Size:     int64(len(data)),
		LoadTime: time.Since(start),
	}
	doc.Version, doc.OASVersion = DetectVersion(root)

	c.mu.Lock()
	if existing, ok := c.docs[key]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.docs[key] = doc
	c.order = append(c.order, key)
	c.mu.Unlock()
	c.loads.Add(1)

	c.logger.Debug("loaded document",
		"path", key,
		"size", FormatBytes(doc.Size),
		"format", string(doc.Format),
		"version", doc.Version)
	return doc, nil
}

func (c *Cache) read(ctx context.Context, key string) ([]byte, SourceFormat, error) {
	if IsURL(key) {
		if c.fetcher == nil {
			return nil, SourceFormatUnknown, errors.New("HTTP references are disabled")
		}
		data, contentType, err := c.fetcher.Fetch(ctx, key)
		if err != nil {
			return nil, SourceFormatUnknown, err
		}
		if err := c.checkSize(key, int64(len(data))); err != nil {
			return nil, SourceFormatUnknown, err
		}
		return data, detectFormatFromURL(key, contentType), nil
	}

	data, err := c.fs.ReadFile(key)
	if err != nil {
		return nil, SourceFormatUnknown, err
	}
	if err := c.checkSize(key, int64(len(data))); err != nil {
		return nil, SourceFormatUnknown, err
	}
	return data, detectFormatFromPath(key), nil
}

func (c *Cache) checkSize(key string, size int64) error {
	if size > c.maxFileSize {
		return &oaserrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        c.maxFileSize,
			Actual:       size,
			Message:      key,
		}
	}
	return nil
}

// Get returns an already loaded document.
func (c *Cache) Get(key string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[key]
	return doc, ok
}

// Len returns the number of loaded documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Documents returns the loaded documents in load order.
func (c *Cache) Documents() []*Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Document, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.docs[key])
	}
	return out
}

// Loads returns how many documents were actually read and decoded.
func (c *Cache) Loads() int64 {
	return c.loads.Load()
}

// FileSystem returns the file system documents are read from.
func (c *Cache) FileSystem() FileSystem {
	return c.fs
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
