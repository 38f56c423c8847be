// Package errors provides the classified error primitives used across contentbuild.
//
// A ClassifiedError carries a category, a severity, a retry strategy and
// structured context. Errors are created through the fluent ErrorBuilder:
//
//	err := errors.NetworkError("contentful request failed").
//		WithCause(cause).
//		WithContext("url", url).
//		Build()
//
// The CLI and HTTP adapters turn classified errors into exit codes and JSON
// responses respectively.
package errors
