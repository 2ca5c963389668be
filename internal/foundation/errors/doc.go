// Package errors provides the classified error primitives used across subdocs.
//
// A ClassifiedError carries a category (config, git, filesystem, ...), a
// severity and a retry strategy next to the message and cause, so the CLI can
// pick an exit code and the git client can decide whether a failure is worth
// retrying without parsing strings.
//
//	err := errors.NewError(errors.CategoryGit, "clone failed").
//		WithContext("url", repoURL).
//		WithCause(originalErr).
//		Build()
package errors
