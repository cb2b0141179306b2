package events

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// EmitFunc delivers a generation event to whoever is listening.
type EmitFunc func(ctx context.Context, evt GenerationEvent)

var (
	emitMu sync.RWMutex
	emit   EmitFunc = func(context.Context, GenerationEvent) {}
)

// EmitGeneration sends evt through the current emitter.
func EmitGeneration(ctx context.Context, evt GenerationEvent) {
	emitMu.RLock()
	f := emit
	emitMu.RUnlock()
	f(ctx, evt)
}

// EnableRuntimeEmitter forwards events to the Wails frontend. ctx must be
// the context Wails passed to OnStartup.
func EnableRuntimeEmitter() {
	SetCustomEmitter(func(ctx context.Context, evt GenerationEvent) {
		runtime.EventsEmit(ctx, evt.Name(), evt)
		if evt.Chunk == "" {
			logRuntimeEvent(ctx, evt)
		}
	})
}

// SetCustomEmitter replaces the emitter. A nil f disables emission.
func SetCustomEmitter(f EmitFunc) {
	if f == nil {
		f = func(context.Context, GenerationEvent) {}
	}
	emitMu.Lock()
	emit = f
	emitMu.Unlock()
}
