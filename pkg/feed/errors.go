package feed

import "fmt"

// Transfer errors. Each names a distinct failure so an operator can tell a
// ticket problem apart from a transport problem.
var (
	// ErrNotReady is returned when the API has not generated the requested feed or
	// report yet. It is not retried; run the command again later.
	ErrNotReady = fmt.Errorf("not available yet")

	ErrRequestFailed = fmt.Errorf("request failed")
	ErrReadFailed    = fmt.Errorf("read failed")
	ErrWriteFailed   = fmt.Errorf("write failed")

	// Upload phase 1.
	ErrTicketStatus     = fmt.Errorf("upload url request rejected")
	ErrTicketDecode     = fmt.Errorf("upload url response is not valid JSON")
	ErrTicketMissingURL = fmt.Errorf("upload url response has no url")
	ErrTicketInvalidURL = fmt.Errorf("upload url is not an absolute http(s) url")

	// Upload phase 2.
	ErrUploadStatus = fmt.Errorf("upload rejected by storage")
)
