package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result describes one fetched URL.
type Result struct {
	URL     string
	Status  int
	Size    int64
	Elapsed time.Duration
	Err     error
}

func (r *Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("ERR %s %v", r.URL, r.Err)
	}
	return fmt.Sprintf("%d %s %dB %s", r.Status, r.URL, r.Size, r.Elapsed.Round(time.Millisecond))
}

type Service struct {
	options *Options
	client  *http.Client
	out     io.Writer
	mux     sync.Mutex
}

func New(options *Options, out io.Writer) (*Service, error) {
	client, err := options.HTTPClient()
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	return &Service{options: options, client: client, out: out}, nil
}

// Fetch retrieves every URL concurrently; results follow the order of the URLs.
func (s *Service) Fetch(ctx context.Context) []*Result {
	results := make([]*Result, len(s.options.URLs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.options.Concurrency)
	for i, URL := range s.options.URLs {
		group.Go(func() error {
			results[i] = s.fetch(ctx, URL)
			s.print(results[i])
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// Run fetches every URL and fails when any fetch failed.
func (s *Service) Run(ctx context.Context) error {
	failed := 0
	for _, result := range s.Fetch(ctx) {
		if result.Err != nil || result.Status >= http.StatusBadRequest {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fetches failed", failed, len(s.options.URLs))
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, URL string) *Result {
	ret := &Result{URL: URL}
	started := time.Now()
	defer func() { ret.Elapsed = time.Since(started) }()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, nil)
	if err != nil {
		ret.Err = err
		return ret
	}
	resp, err := s.client.Do(req)
	if err != nil {
		ret.Err = err
		return ret
	}
	defer resp.Body.Close()
	ret.Status = resp.StatusCode
	ret.Size, ret.Err = io.Copy(io.Discard, resp.Body)
	return ret
}

func (s *Service) print(result *Result) {
	s.mux.Lock()
	defer s.mux.Unlock()
	_, _ = fmt.Fprintln(s.out, result.String())
}
