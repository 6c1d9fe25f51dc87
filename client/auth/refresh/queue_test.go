package refresh

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://localhost"+path, nil)
	require.NoError(t, err)
	return req
}

func TestQueue_Drain(t *testing.T) {
	testCases := []struct {
		description string
		token       string
		err         error
	}{
		{description: "success attaches token and resolves in arrival order", token: "renewed"},
		{description: "failure rejects every entry", err: errors.New("Refresh failed")},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			queue := &Queue{}
			var entries []*Entry
			for _, path := range []string{"/a", "/b", "/c"} {
				entry := NewEntry(newRequest(t, path), "")
				entries = append(entries, entry)
				queue.Enqueue(entry)
			}
			assert.Equal(t, 3, queue.Len())

			count := queue.Drain(testCase.token, testCase.err, AttachBearer)
			assert.Equal(t, 3, count)
			assert.Equal(t, 0, queue.Len())

			for i, entry := range entries {
				outcome := <-entry.Done()
				if testCase.err != nil {
					assert.ErrorIs(t, outcome.Err, testCase.err)
					assert.Nil(t, outcome.Request)
					continue
				}
				require.NoError(t, outcome.Err)
				assert.Same(t, entries[i].Request(), outcome.Request)
				assert.Equal(t, "Bearer "+testCase.token, outcome.Request.Header.Get("Authorization"))
			}
		})
	}
}

func TestQueue_DrainOnce(t *testing.T) {
	queue := &Queue{}
	entry := NewEntry(newRequest(t, "/data"), "")
	queue.Enqueue(entry)

	assert.Equal(t, 1, queue.Drain("first", nil, AttachBearer))
	assert.Equal(t, 0, queue.Drain("second", nil, AttachBearer))
	assert.Equal(t, 0, queue.Drain("", errors.New("late"), AttachBearer))

	outcome := <-entry.Done()
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Bearer first", outcome.Request.Header.Get("Authorization"))
	select {
	case extra := <-entry.Done():
		t.Fatalf("entry settled twice: %+v", extra)
	default:
	}
}

func TestQueue_CustomAttacher(t *testing.T) {
	queue := &Queue{}
	entry := NewEntry(newRequest(t, "/data"), "")
	queue.Enqueue(entry)
	queue.Drain("renewed", nil, func(req *http.Request, token string) {
		req.Header.Set("X-Auth-Token", token)
	})
	outcome := <-entry.Done()
	assert.Equal(t, "renewed", outcome.Request.Header.Get("X-Auth-Token"))
	assert.Empty(t, outcome.Request.Header.Get("Authorization"))
}

func TestExtractorFor(t *testing.T) {
	testCases := []struct {
		description string
		attach      TokenAttacher
		carry       func(req *http.Request)
		expect      string
	}{
		{
			description: "bearer header",
			attach:      AttachBearer,
			carry:       func(req *http.Request) { req.Header.Set("Authorization", "Bearer old-token") },
			expect:      "old-token",
		},
		{
			description: "custom header",
			attach:      func(req *http.Request, token string) { req.Header.Set("X-Auth-Token", token) },
			carry:       func(req *http.Request) { req.Header.Set("X-Auth-Token", "old-token") },
			expect:      "old-token",
		},
		{
			description: "header with prefix and suffix",
			attach:      func(req *http.Request, token string) { req.Header.Set("Cookie", "session="+token+"; Path=/") },
			carry:       func(req *http.Request) { req.Header.Set("Cookie", "session=old-token; Path=/") },
			expect:      "old-token",
		},
		{
			description: "query parameter",
			attach: func(req *http.Request, token string) {
				query := req.URL.Query()
				query.Set("access_token", token)
				req.URL.RawQuery = query.Encode()
			},
			carry:  func(req *http.Request) { req.URL.RawQuery = "access_token=old-token&page=2" },
			expect: "old-token",
		},
		{
			description: "request without credential",
			attach:      func(req *http.Request, token string) { req.Header.Set("X-Auth-Token", token) },
			carry:       func(req *http.Request) { req.Header.Set("Authorization", "Bearer other") },
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			req := newRequest(t, "/data")
			testCase.carry(req)
			assert.Equal(t, testCase.expect, ExtractorFor(testCase.attach)(req))
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := newRequest(t, "/data")
	req.Header.Set("Authorization", "bearer old-token")
	assert.Equal(t, "old-token", bearerToken(req))
	assert.Empty(t, bearerToken(newRequest(t, "/data")))
}
