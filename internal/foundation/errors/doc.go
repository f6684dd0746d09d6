// Package errors provides the classified error primitives used across initscript.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, filesystem, build)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior hint for callers
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit code mapping and user-facing formatting
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write init script").
//		Fatal().
//		WithContext("path", target).
//		Build()
package errors
