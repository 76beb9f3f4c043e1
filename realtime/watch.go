package realtime

import (
	"context"
)

// FetchFunc re-reads the full current state for a view.
type FetchFunc func(ctx context.Context) error

// Watch runs fetch once, then once per delivered event, until ctx is done or
// sub is canceled. sub may be a single Subscription or a Merge of several. Events still buffered when the subscription is canceled
// never trigger a fetch. A fetch error is passed to onErr and does not stop
// the loop.
func Watch(ctx context.Context, sub Feed, fetch FetchFunc, onErr func(error)) error {
	if err := runFetch(ctx, sub, fetch, onErr); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Done():
			return nil
		case <-sub.Events():
			if err := runFetch(ctx, sub, fetch, onErr); err != nil {
				return err
			}
		}
	}
}

func runFetch(ctx context.Context, sub Feed, fetch FetchFunc, onErr func(error)) error {
	// select picks randomly among ready cases, so re-check teardown here
	if sub.Canceled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fetch(ctx); err != nil && onErr != nil && ctx.Err() == nil {
		onErr(err)
	}
	return nil
}
