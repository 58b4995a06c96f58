package driven

import "context"

// Pinger is implemented by dependencies that can report their own liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
