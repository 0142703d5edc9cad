package events

import (
	"context"
	"sync"

	"github.com/dropDatabas3/fabula/internal/metrics"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
)

// Handler procesa un evento. Los errores se loguean y aíslan: un handler
// que falla no bloquea a los demás ni al dispatcher.
type Handler func(ctx context.Context, evt Event) error

// Bus es una cola buffered con N workers de dispatch.
// Publish nunca bloquea al productor: si la cola está llena el evento se
// descarta con log de error y métrica (nunca una pérdida silenciosa).
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler

	ch      chan Event
	workers int
	wg      sync.WaitGroup
}

func NewBus(buffer, workers int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 4
	}
	return &Bus{
		handlers: make(map[Kind][]Handler),
		ch:       make(chan Event, buffer),
		workers:  workers,
	}
}

// Subscribe registra un handler para un Kind. Llamar antes de Start.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish encola el evento. Retorna false si la cola estaba llena.
func (b *Bus) Publish(ctx context.Context, evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		logger.From(ctx).Error("event queue full, event dropped",
			logger.Event(string(evt.Kind)),
			logger.AccountID(evt.AccountID),
		)
		metrics.EventsDropped.WithLabelValues(string(evt.Kind)).Inc()
		return false
	}
}

// Start lanza los workers. Los workers terminan cuando se llama Close y la
// cola quedó drenada.
//
// El dispatch usa un contexto desacoplado de la cancelación de ctx: el
// shutdown cancela el contexto de arranque ANTES de que Close drene la cola,
// y los eventos encolados todavía tienen que poder escribir en el store.
func (b *Bus) Start(ctx context.Context) {
	dctx := context.WithoutCancel(ctx)
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for evt := range b.ch {
				b.dispatch(dctx, evt)
			}
		}()
	}
}

// Close cierra la cola y espera a que los workers terminen de drenar.
func (b *Bus) Close() {
	close(b.ch)
	b.wg.Wait()
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	hs := b.handlers[evt.Kind]
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, evt); err != nil {
			logger.From(ctx).Error("event handler failed",
				logger.Event(string(evt.Kind)),
				logger.AccountID(evt.AccountID),
				logger.Err(err),
			)
			metrics.EventHandlerFailures.WithLabelValues(string(evt.Kind)).Inc()
		}
	}
}
