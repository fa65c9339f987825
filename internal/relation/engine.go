package relation

// Engine evaluates relation groups against a control tree.
// Holds an immutable operator registry and a stateless resolver; safe for
// concurrent use.
type Engine struct {
	registry *Registry
	resolver ControlResolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the operator registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithResolver replaces the control resolution strategy.
func WithResolver(r ControlResolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// NewEngine creates an engine with the default registry and AncestorOnly resolution.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: DefaultRegistry(),
		resolver: AncestorOnly{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's operator registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Resolver returns the engine's control resolver.
func (e *Engine) Resolver() ControlResolver {
	return e.resolver
}

var defaultEngine = NewEngine()
