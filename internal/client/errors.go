package client

import "fmt"

// NetworkError reports a failed request to the capture service: a transport
// failure, or a response outside 2xx.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int    // 0 when no response was received
	Message    string // server error body, when present
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.URL, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
