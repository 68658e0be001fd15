package normalizer

import (
	"net/http"
	"strings"

	"github.com/erraggy/oasgraph/internal/options"
	"github.com/erraggy/oasgraph/oaserrors"
	"github.com/erraggy/oasgraph/parser"
)

// Option is a function that configures a normalization run.
type Option func(*normalizeConfig) error

// normalizeConfig holds configuration for a normalization run
type normalizeConfig struct {
	// Input sources
	filePaths []string
	fs        parser.FileSystem

	logger      parser.Logger
	concurrency int

	// Document loading
	resolveHTTPRefs bool
	httpClient      *http.Client
	userAgent       string

	// Resource limits (0 means use default)
	maxFileSize        int64
	maxCachedDocuments int
	maxRefDepth        int

	strictRefs      bool
	defaultService  string
	noFlatten       bool
	ignoreNonObject bool
}

// WithFilePaths adds entry documents. Each may be a file path or, with
// WithResolveHTTPRefs, an http(s) URL.
func WithFilePaths(paths ...string) Option {
	return func(cfg *normalizeConfig) error {
		for _, p := range paths {
			if strings.TrimSpace(p) == "" {
				return &oaserrors.ConfigError{Option: "WithFilePaths", Value: p, Message: "path must not be empty"}
			}
		}
		cfg.filePaths = append(cfg.filePaths, paths...)
		return nil
	}
}

// WithFileSystem reads documents from fsys instead of the OS file system.
func WithFileSystem(fsys parser.FileSystem) Option {
	return func(cfg *normalizeConfig) error {
		if err := options.NotNil("WithFileSystem", fsys == nil); err != nil {
			return err
		}
		cfg.fs = fsys
		return nil
	}
}

// WithLogger sets the logger used by every stage.
func WithLogger(l parser.Logger) Option {
	return func(cfg *normalizeConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithConcurrency bounds the goroutines used while dereferencing. Values of
// 0 or 1 run sequentially.
func WithConcurrency(n int) Option {
	return func(cfg *normalizeConfig) error {
		if err := options.NonNegative("WithConcurrency", n); err != nil {
			return err
		}
		cfg.concurrency = n
		return nil
	}
}

// WithResolveHTTPRefs enables loading http(s) documents.
func WithResolveHTTPRefs(enabled bool) Option {
	return func(cfg *normalizeConfig) error {
		cfg.resolveHTTPRefs = enabled
		return nil
	}
}

// WithHTTPClient sets the client for http(s) documents.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *normalizeConfig) error {
		cfg.httpClient = client
		return nil
	}
}

// WithUserAgent sets the User-Agent of http(s) requests.
func WithUserAgent(ua string) Option {
	return func(cfg *normalizeConfig) error {
		cfg.userAgent = ua
		return nil
	}
}

// WithMaxFileSize limits the size of a single document in bytes.
// Zero selects parser.MaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(cfg *normalizeConfig) error {
		if err := options.NonNegative("WithMaxFileSize", size); err != nil {
			return err
		}
		cfg.maxFileSize = size
		return nil
	}
}

// WithMaxCachedDocuments limits how many documents one run may load.
// Zero selects parser.MaxCachedDocuments.
func WithMaxCachedDocuments(n int) Option {
	return func(cfg *normalizeConfig) error {
		if err := options.NonNegative("WithMaxCachedDocuments", n); err != nil {
			return err
		}
		cfg.maxCachedDocuments = n
		return nil
	}
}

// WithMaxRefDepth limits how many references may be followed along a single
// path. Zero selects parser.MaxRefDepth.
func WithMaxRefDepth(depth int) Option {
	return func(cfg *normalizeConfig) error {
		if err := options.NonNegative("WithMaxRefDepth", depth); err != nil {
			return err
		}
		cfg.maxRefDepth = depth
		return nil
	}
}

// WithStrictRefs makes a broken reference abort the run instead of being
// reported in Result.Warnings.
func WithStrictRefs(strict bool) Option {
	return func(cfg *normalizeConfig) error {
		cfg.strictRefs = strict
		return nil
	}
}

// WithDefaultServiceName names the service holding untagged endpoints.
// Defaults to canonical.DefaultServiceName.
func WithDefaultServiceName(name string) Option {
	return func(cfg *normalizeConfig) error {
		if strings.TrimSpace(name) == "" {
			return &oaserrors.ConfigError{Option: "WithDefaultServiceName", Value: name, Message: "must not be empty"}
		}
		cfg.defaultService = name
		return nil
	}
}

// WithFlatten controls whether allOf and anyOf are flattened. Enabled by
// default.
func WithFlatten(enabled bool) Option {
	return func(cfg *normalizeConfig) error {
		cfg.noFlatten = !enabled
		return nil
	}
}

// WithIgnoreNonObject flattens compositions whose members are not all
// objects, skipping the others.
func WithIgnoreNonObject(ignore bool) Option {
	return func(cfg *normalizeConfig) error {
		cfg.ignoreNonObject = ignore
		return nil
	}
}

// applyOptions applies option functions and validates configuration
func applyOptions(opts ...Option) (*normalizeConfig, error) {
	cfg := &normalizeConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := options.RequireInputs("WithFilePaths", "at least one document is required", len(cfg.filePaths)); err != nil {
		return nil, err
	}
	return cfg, nil
}
