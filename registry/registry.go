package registry

import (
	"context"
)

// Binding is the routing target for one sensor id: the URL records are
// pushed to and the kind of backend serving it.
type Binding struct {
	DataURL     string `json:"data_url"`
	BackendKind string `json:"backend_kind"`
}

// Registry resolves a sensor id to its backend binding.
type Registry interface {
	// Lookup returns the binding for sensorID. An unregistered sensor
	// yields errors.ErrUnknownSensor; transport problems yield
	// errors.ErrBackendLookupFailed or errors.ErrBackendUnreachable.
	Lookup(ctx context.Context, sensorID string) (Binding, error)
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func(ctx context.Context, sensorID string) (Binding, error)

// Lookup calls the wrapped function.
func (f RegistryFunc) Lookup(ctx context.Context, sensorID string) (Binding, error) {
	return f(ctx, sensorID)
}
