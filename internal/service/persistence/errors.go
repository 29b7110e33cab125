package persistence

import "errors"

// ErrBadRequest marks ingestion requests that carry no usable payload.
// Everything else returned by the service is an internal failure.
var ErrBadRequest = errors.New("bad request")

// ErrNoJournal is returned by Stats when the service runs without a journal.
var ErrNoJournal = errors.New("capture journal not configured")
