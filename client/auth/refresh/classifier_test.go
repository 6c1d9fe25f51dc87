package refresh

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Matches(t *testing.T) {
	plain := func(t *testing.T) *http.Request { return newRequest(t, "/data") }
	skipped := func(t *testing.T) *http.Request {
		req := newRequest(t, "/data")
		return req.WithContext(WithSkip(req.Context()))
	}
	retried := func(t *testing.T) *http.Request { return markRetried(newRequest(t, "/data")) }

	testCases := []struct {
		description string
		statusCodes []int
		request     func(t *testing.T) *http.Request
		status      int
		noResponse  bool
		err         error
		expect      bool
	}{
		{description: "default trigger status", request: plain, status: http.StatusUnauthorized, expect: true},
		{description: "non trigger status", request: plain, status: http.StatusForbidden},
		{description: "configured forbidden", statusCodes: []int{401, 403}, request: plain, status: http.StatusForbidden, expect: true},
		{description: "success status", request: plain, status: http.StatusOK},
		{description: "transport error without response", request: plain, noResponse: true, err: errors.New("connection refused")},
		{description: "opt-out", request: skipped, status: http.StatusUnauthorized},
		{description: "already replayed", request: retried, status: http.StatusUnauthorized},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			classifier := NewClassifier(testCase.statusCodes...)
			var resp *http.Response
			if !testCase.noResponse {
				resp = &http.Response{StatusCode: testCase.status}
			}
			assert.Equal(t, testCase.expect, classifier.Matches(testCase.request(t), resp, testCase.err))
		})
	}
}
