package transport

import (
	"bytes"
	"io"
	"net/http"
)

const maxDiscard = 64 << 10

// clone returns a private copy of r whose body can be replayed.
// A body without GetBody is buffered once and r is given a replayable body too.
func clone(r *http.Request) (*http.Request, error) {
	cloned := r.Clone(r.Context())
	if r.Body == nil || r.Body == http.NoBody {
		return cloned, nil
	}
	if r.GetBody != nil {
		body, err := r.GetBody()
		if err != nil {
			return nil, err
		}
		cloned.Body = body
		return cloned, nil
	}
	buf, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	getBody := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	r.Body, _ = getBody()
	r.GetBody = getBody
	cloned.Body, _ = getBody()
	cloned.GetBody = getBody
	return cloned, nil
}

// discard drains and closes a response that will not reach the caller.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDiscard))
	_ = resp.Body.Close()
}
