package payment

import (
	"sync"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

type registryEntry struct {
	once    sync.Once
	build   func() domain.Gateway
	gateway domain.Gateway
}

func (e *registryEntry) get() domain.Gateway {
	e.once.Do(func() {
		e.gateway = e.build()
	})

	return e.gateway
}

// Registry maps every known gateway name to its implementation. The set of
// names is closed; instances are built on first use.
type Registry struct {
	defaultName domain.GatewayName
	entries     map[domain.GatewayName]*registryEntry
}

type RegistryOption func(*Registry)

// WithGateway replaces the implementation registered under name.
func WithGateway(name domain.GatewayName, gateway domain.Gateway) RegistryOption {
	return func(r *Registry) {
		r.entries[name] = &registryEntry{
			build: func() domain.Gateway { return gateway },
		}
	}
}

func NewRegistry(defaultName domain.GatewayName, stripeConfig StripeConfig, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		entries: map[domain.GatewayName]*registryEntry{
			domain.GatewayStripe: {build: func() domain.Gateway { return NewStripeGateway(stripeConfig) }},
			domain.GatewayPayPal: {build: func() domain.Gateway { return NewPayPalGateway() }},
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	for name := range r.entries {
		if !name.Valid() {
			return nil, domain.UnknownGatewayError(name)
		}
	}

	if defaultName == "" {
		defaultName = domain.GatewayStripe
	}

	if _, ok := r.entries[defaultName]; !ok {
		return nil, domain.UnknownGatewayError(defaultName)
	}

	r.defaultName = defaultName

	return r, nil
}

func (r *Registry) Resolve(name domain.GatewayName) (domain.Gateway, error) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, domain.UnknownGatewayError(name)
	}

	return entry.get(), nil
}

func (r *Registry) DefaultName() domain.GatewayName {
	return r.defaultName
}

func (r *Registry) Default() domain.Gateway {
	return r.entries[r.defaultName].get()
}

// ForProvider returns the provider's own gateway when it names one and the
// platform default otherwise. A nil provider gets the default.
func (r *Registry) ForProvider(provider *domain.Provider) (domain.Gateway, error) {
	if provider != nil && provider.Gateway != nil && *provider.Gateway != "" {
		return r.Resolve(*provider.Gateway)
	}

	return r.Default(), nil
}

type RegistryEntry struct {
	domain.GatewayInfo
	IsConfigured bool
	IsDefault    bool
}

func (r *Registry) List() []RegistryEntry {
	entries := make([]RegistryEntry, 0, len(r.entries))

	for _, name := range domain.GatewayNames() {
		entry, ok := r.entries[name]
		if !ok {
			continue
		}

		gateway := entry.get()
		entries = append(entries, RegistryEntry{
			GatewayInfo:  gateway.Info(),
			IsConfigured: gateway.IsConfigured(),
			IsDefault:    name == r.defaultName,
		})
	}

	return entries
}
