package fdocs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a closed taxonomy of error classes the engine can produce. Callers
// (the CLI, the report) switch on Kind rather than matching error strings.
type Kind string

const (
	// Configuration errors. Global: they abort the run before scheduling.
	KindInvalidConfig Kind = "INVALID_CONFIG"
	KindFileNotFound  Kind = "FILE_NOT_FOUND"

	// Resolution errors. Global.
	KindLockfileNotFound Kind = "LOCKFILE_NOT_FOUND"
	KindNotInLock        Kind = "NOT_IN_LOCK"

	// Per-adapter network classification.
	KindAuth       Kind = "AUTH"
	KindRateLimit  Kind = "RATE_LIMIT"
	KindNotFound   Kind = "NOT_FOUND"
	KindNetwork    Kind = "NETWORK"
	KindParse      Kind = "PARSE"
	KindServer     Kind = "SERVER"
	KindUnknown    Kind = "UNKNOWN"

	// Reference resolution.
	KindNoRef Kind = "NO_REF"

	// Storage.
	KindIO            Kind = "IO"
	KindAtomicityFail Kind = "ATOMICITY_FAIL"

	// Registry-archive specific.
	KindArchiveMalformed Kind = "ARCHIVE_MALFORMED"
	KindTarballNotFound  Kind = "TARBALL_NOT_FOUND"

	// Normalizer.
	KindNormalizationDegraded Kind = "NORMALIZATION_DEGRADED"
)

// fallbackEligible is the set of Kinds that permit the orchestrator to try
// the next adapter in a mode's fallback chain. AUTH, INVALID_CONFIG, and IO
// are deliberately excluded per spec.
var fallbackEligible = map[Kind]bool{
	KindRateLimit:             true,
	KindNotFound:              true,
	KindNetwork:               true,
	KindParse:                 true,
	KindServer:                true,
	KindNoRef:                 true,
	KindNormalizationDegraded: true,
}

// IsFallbackEligible reports whether an error of this Kind should trigger
// the next adapter in the chain instead of failing the package outright.
func IsFallbackEligible(k Kind) bool {
	return fallbackEligible[k]
}

// EngineError is the value-carrying error type used throughout the engine.
// It wraps an underlying cause (via github.com/pkg/errors, so %+v prints a
// stack-annotated chain) with a classification and the package it happened
// to, so the report can group and count failures without re-parsing strings.
type EngineError struct {
	Kind    Kind
	Package string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s: %s: %v", e.Package, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Format prints the cause's stack-annotated chain under %+v; every other
// verb formats Error() unchanged.
func (e *EngineError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		if e.Package != "" {
			fmt.Fprintf(s, "%s: ", e.Package)
		}
		fmt.Fprintf(s, "%s: %+v", e.Kind, e.Err)
		return
	}
	fmt.Fprintf(s, fmt.FormatString(s, verb), e.Error())
}

func (e *EngineError) Unwrap() error { return e.Err }

// Cause implements the github.com/pkg/errors Causer interface so
// errors.Cause(err) reaches through an EngineError to the original error.
func (e *EngineError) Cause() error { return e.Err }

// NewError constructs an EngineError, wrapping cause with a message via
// pkg/errors so the full chain survives in verbose (%+v) output.
func NewError(kind Kind, pkgName, msg string, cause error) *EngineError {
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrap(cause, msg)
	} else {
		wrapped = errors.New(msg)
	}
	return &EngineError{Kind: kind, Package: pkgName, Err: wrapped}
}

// AsEngineError extracts an *EngineError from err, if any is present in its
// chain.
func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	for err != nil {
		if e, ok := err.(*EngineError); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ee, false
}
