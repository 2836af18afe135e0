package obs

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

type annotationsKey struct{}

// annotations holds pricing fields handlers attach to the request log line.
type annotations struct {
	mu     sync.Mutex
	fields map[string]string
}

// withAnnotations installs an empty annotation set on ctx.
func withAnnotations(ctx context.Context) (context.Context, *annotations) {
	if ctx == nil {
		ctx = context.Background()
	}
	a := &annotations{fields: make(map[string]string)}
	return context.WithValue(ctx, annotationsKey{}, a), a
}

// Annotate adds key=value to the request log line of the request carried by ctx.
// It is a no-op outside RequestLogger.
func Annotate(ctx context.Context, key, value string) {
	if ctx == nil || key == "" {
		return
	}
	a, ok := ctx.Value(annotationsKey{}).(*annotations)
	if !ok {
		return
	}
	a.mu.Lock()
	a.fields[key] = value
	a.mu.Unlock()
}

// apply writes the annotations onto evt in key order.
func (a *annotations) apply(evt *zerolog.Event) *zerolog.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.fields))
	for k := range a.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		evt = evt.Str(k, a.fields[k])
	}
	return evt
}
