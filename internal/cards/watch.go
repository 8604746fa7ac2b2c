package cards

import (
	"context"

	"github.com/MrSnakeDoc/pulse/internal/repository"
)

// watch evaluates view once immediately and again after every repository
// change. Changes that arrive while the receiver is busy are coalesced into
// a single re-evaluation, so the receiver always ends up with the view of
// the latest state. The channel is closed when ctx is done.
func watch[T any](ctx context.Context, repo *repository.Repository, view func() T) <-chan T {
	out := make(chan T)
	dirty := make(chan struct{}, 1)
	dirty <- struct{}{}

	unsubscribe := repo.Subscribe(func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-dirty:
			}

			value := view()
			select {
			case out <- value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
