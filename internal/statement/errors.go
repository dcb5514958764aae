package statement

import "errors"

// Structural errors abort a single grammar attempt and trigger fallback.
// They never escape ParseDocument.
var (
	// ErrNoSections means none of the grammar's section headers were found.
	ErrNoSections = errors.New("no recognised sections")
	// ErrUnterminatedSection means a section whose grammar requires an
	// explicit terminator was left open.
	ErrUnterminatedSection = errors.New("section not terminated")
	// ErrEmptyResult means the grammar matched structurally but produced no
	// validated record.
	ErrEmptyResult = errors.New("no validated records")
)

// record rejection reasons, logged at debug level
var (
	errNoTicker     = errors.New("ticker not resolved")
	errNonPositive  = errors.New("non-positive amount")
	errUnreconciled = errors.New("quantity x price does not reconcile with market value")
	errUnparseable  = errors.New("unparseable numeric field")
	errNoTradeDate  = errors.New("trade date not parseable")
)
