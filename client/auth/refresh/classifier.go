package refresh

import "net/http"

// Classifier decides whether a failed attempt qualifies for the refresh flow.
type Classifier struct {
	statusCodes map[int]bool
}

// NewClassifier creates a classifier for the given trigger statuses (401 when none given).
func NewClassifier(statusCodes ...int) *Classifier {
	if len(statusCodes) == 0 {
		statusCodes = []int{http.StatusUnauthorized}
	}
	ret := &Classifier{statusCodes: make(map[int]bool, len(statusCodes))}
	for _, code := range statusCodes {
		ret.statusCodes[code] = true
	}
	return ret
}

// Matches returns true when req was not excluded, a response was received with a
// trigger status, and req has not already been replayed once.
func (c *Classifier) Matches(req *http.Request, resp *http.Response, err error) bool {
	if req == nil || IsSkipped(req.Context()) {
		return false
	}
	if err != nil || resp == nil {
		return false
	}
	if !c.statusCodes[resp.StatusCode] {
		return false
	}
	return !IsRetried(req.Context())
}
