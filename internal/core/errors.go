package core

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/types"
)

// resolutionError reports that an external lookup for coord failed.
func resolutionError(coord types.ArtifactCoordinate, what string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("failed to resolve %s %s", what, coord))
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

// classificationError reports an artifact the release resolver could not
// attribute to a release.
func classificationError(coord types.ArtifactCoordinate, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("failed to classify %s", coord))
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

func conflictError(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(msg)
}

func configurationError(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
}

// IsResolutionError reports whether err means a package, descriptor or
// tree could not be found.
func IsResolutionError(err error) bool {
	return err != nil && errbuilder.CodeOf(err) == errbuilder.CodeNotFound
}

func IsClassificationError(err error) bool {
	return err != nil && errbuilder.CodeOf(err) == errbuilder.CodeFailedPrecondition
}

func IsConflictError(err error) bool {
	return err != nil && errbuilder.CodeOf(err) == errbuilder.CodeAlreadyExists
}

func IsConfigurationError(err error) bool {
	return err != nil && errbuilder.CodeOf(err) == errbuilder.CodeInvalidArgument
}

// recoverable reports whether a per-member or per-root failure may be
// skipped without aborting the whole run.
func recoverable(err error) bool {
	return IsResolutionError(err) || IsClassificationError(err)
}
