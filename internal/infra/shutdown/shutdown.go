package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Handler coordinates graceful shutdown.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	hooks []func(context.Context) error

	trigger chan os.Signal
	done    chan struct{}
}

// NewHandler creates a shutdown handler. The timeout bounds the whole
// hook sequence; size it for the slowest hook, typically the payload
// engine's retrying close.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		trigger: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Trigger initiates shutdown without an OS signal.
func (h *Handler) Trigger() {
	select {
	case h.trigger <- syscall.SIGTERM:
	default:
	}
}

// Wait blocks until SIGINT, SIGTERM or Trigger, then executes the
// registered hooks in reverse order. Every hook runs even when an
// earlier one fails; the failures are returned aggregated.
func (h *Handler) Wait() error {
	signal.Notify(h.trigger, syscall.SIGINT, syscall.SIGTERM)
	<-h.trigger

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var result *multierror.Error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	close(h.done)
	return result.ErrorOrNil()
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
