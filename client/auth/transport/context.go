package transport

import (
	"context"

	"github.com/viant/tokenrefresh/client/auth/refresh"
)

// SkipRefresh returns a context whose requests bypass credential renewal;
// their failures are returned unchanged.
func SkipRefresh(ctx context.Context) context.Context {
	return refresh.WithSkip(ctx)
}
