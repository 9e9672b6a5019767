// Package backend pushes canonical records to a sensor's raw data store.
package backend

import (
	"context"

	"github.com/SINTEF/sensapp-sub001/registry"
	"github.com/SINTEF/sensapp-sub001/senml"
)

// KindRaw is the only backend kind currently served. Bindings carrying
// any other kind are a configuration error for that sensor.
const KindRaw = "raw"

// Store forwards a sensor's records to the backend named by its binding.
type Store interface {
	// Push writes records to the binding's data URL. The records all
	// belong to one sensor and are written as a single unit; the backend
	// orders them internally by timestamp.
	Push(ctx context.Context, binding registry.Binding, records []senml.Record) error
}
