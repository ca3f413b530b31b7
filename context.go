package cachet

import "context"

type contextKey struct{ name string }

func (k *contextKey) String() string { return "cachet context value " + k.name }

// engagedKey marks a request's traversal context the first time a caching
// middleware engages, so a second instance can detect the nesting.
var engagedKey = &contextKey{"caching-engaged"}

func markEngaged(ctx context.Context) context.Context {
	return context.WithValue(ctx, engagedKey, true)
}

func engaged(ctx context.Context) bool {
	on, _ := ctx.Value(engagedKey).(bool)
	return on
}
