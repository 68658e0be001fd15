// Package oaserrors provides structured error types for oasgraph.
//
// Import path: github.com/erraggy/oasgraph/oaserrors
//
// The types support [errors.Is] and [errors.As] so callers can tell fatal load
// failures apart from broken references that were only reported as warnings.
//
// # Error Types
//
//   - [LoadError]: a document could not be read or decoded; aborts the run
//   - [ReferenceError]: a $ref could not be resolved, or closed a cycle
//   - [ResourceLimitError]: a size, count or depth limit was exceeded
//   - [ConfigError]: invalid options
//
// # Sentinel Errors
//
//   - [ErrLoad]: matches any [LoadError]
//   - [ErrReference]: matches any [ReferenceError]
//   - [ErrCircularReference]: matches [ReferenceError] with IsCircular=true
//   - [ErrBrokenReference]: matches [ReferenceError] with IsBroken=true
//   - [ErrResourceLimit]: matches any [ResourceLimitError]
//   - [ErrConfig]: matches any [ConfigError]
//
// # Usage
//
//	result, err := normalizer.NormalizeWithOptions(ctx, normalizer.WithFilePaths("api.yaml"))
//	if errors.Is(err, oaserrors.ErrLoad) {
//		// the entry document or one of its dependencies is unreadable
//	}
//	for _, w := range result.Warnings {
//		var refErr *oaserrors.ReferenceError
//		if errors.As(w, &refErr) && refErr.IsBroken {
//			fmt.Println("broken reference:", refErr.Ref, "in", refErr.File)
//		}
//	}
package oaserrors
