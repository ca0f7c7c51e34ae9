package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
)

// cartMetrics records cart activity from store events.
type cartMetrics struct {
	mutations metric.Int64Counter
	size      metric.Int64Histogram
}

func newCartMetrics(meter metric.Meter) (*cartMetrics, error) {
	mutations, err := meter.Int64Counter("bazaar.cart.mutations",
		metric.WithDescription("Cart mutations that changed a cart"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "mutations counter")
	}
	size, err := meter.Int64Histogram("bazaar.cart.size",
		metric.WithDescription("Number of units in a cart after a mutation"),
		metric.WithUnit("{item}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 5, 10, 20, 50),
	)
	if err != nil {
		return nil, errors.Wrap(err, "size histogram")
	}
	return &cartMetrics{mutations: mutations, size: size}, nil
}

// Observe is a cart.Listener.
func (m *cartMetrics) Observe(ev cart.Event) {
	ctx := context.Background()
	op := metric.WithAttributes(attribute.String("op", string(ev.Op)))
	m.mutations.Add(ctx, 1, op)
	m.size.Record(ctx, int64(cart.Summarize(ev.Items).Count), op)
}

// registerLiveCarts exports the number of carts held in memory.
func registerLiveCarts(meter metric.Meter, carts *cart.Registry) error {
	_, err := meter.Int64ObservableGauge("bazaar.cart.live",
		metric.WithDescription("Carts held in memory"),
		metric.WithUnit("{cart}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(carts.Live()))
			return nil
		}),
	)
	if err != nil {
		return errors.Wrap(err, "live carts gauge")
	}
	return nil
}
