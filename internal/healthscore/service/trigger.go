package service

import "context"

// Known pass triggers, used as the metrics "trigger" attribute
const (
	TriggerHTTP      = "http"
	TriggerScheduler = "scheduler"
	TriggerCLI       = "cli"
	TriggerEvent     = "event"
)

const defaultTrigger = "manual"

type triggerKey struct{}

// WithTrigger records what started a pass
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFrom returns the trigger set by WithTrigger, or "manual"
func TriggerFrom(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok && t != "" {
		return t
	}
	return defaultTrigger
}
