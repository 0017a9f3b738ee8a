package stage

import (
	"context"
	"fmt"
	"slices"

	"promocut/internal/services"
)

// Registry maps pipeline step numbers to handlers.
type Registry struct {
	handlers map[int]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[int]Handler)}
}

// Register binds handler to step number. Registering a number twice is a
// configuration error.
func (r *Registry) Register(number int, handler Handler) error {
	if handler == nil {
		return services.Wrap(services.ErrConfiguration, "registry", "register",
			fmt.Sprintf("nil handler for step %d", number), nil)
	}
	if existing, ok := r.handlers[number]; ok {
		return services.Wrap(services.ErrConfiguration, "registry", "register",
			fmt.Sprintf("step %d already registered as %s", number, existing.Name()), nil)
	}
	r.handlers[number] = handler
	return nil
}

// Numbers returns the registered step numbers in order.
func (r *Registry) Numbers() []int {
	numbers := make([]int, 0, len(r.handlers))
	for n := range r.handlers {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return numbers
}

// Resolve returns the handler for number.
func (r *Registry) Resolve(number int) (Handler, error) {
	handler, ok := r.handlers[number]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "registry", "resolve",
			fmt.Sprintf("no stage registered for step %d", number), nil)
	}
	return handler, nil
}

// Step is a resolved handler with its number.
type Step struct {
	Number  int
	Handler Handler
}

// Range resolves every step in [from, to]. Any gap is a configuration error.
func (r *Registry) Range(from, to int) ([]Step, error) {
	if from > to {
		return nil, services.Wrap(services.ErrConfiguration, "registry", "resolve",
			fmt.Sprintf("invalid step range %d-%d", from, to), nil)
	}
	steps := make([]Step, 0, to-from+1)
	for n := from; n <= to; n++ {
		handler, err := r.Resolve(n)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Number: n, Handler: handler})
	}
	return steps, nil
}

// Health runs every handler's health check in step order.
func (r *Registry) Health(ctx context.Context) []Health {
	numbers := r.Numbers()
	out := make([]Health, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, r.handlers[n].HealthCheck(ctx))
	}
	return out
}
