package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends everything in the global registry to a Pushgateway under job.
func Push(ctx context.Context, gatewayURL, job string) error {
	return PushFrom(ctx, customRegistry, gatewayURL, job)
}

// PushFrom sends the metrics gathered by g to a Pushgateway.
func PushFrom(ctx context.Context, g prometheus.Gatherer, gatewayURL, job string) error {
	if gatewayURL == "" {
		return fmt.Errorf("%w: gateway URL is required", ErrPushFailed)
	}
	if job == "" {
		job = "triplecrown"
	}
	if err := push.New(gatewayURL, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	return nil
}
