// Package metrics define las métricas Prometheus de dominio en un paquete
// standalone para evitar ciclos de import entre jobs, events y HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TokenExchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "token_exchanges_total",
		Help: "Intercambios de token por provider y resultado",
	}, []string{"provider", "result"}) // result: ok|unauthorized|upstream|internal|invalid

	DecayRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "decay_runs_total",
		Help: "Corridas del decay job por resultado",
	}, []string{"result"}) // result: ok|partial|failed

	DecayChildren = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "decay_children_total",
		Help: "Perfiles infantiles procesados por el decay job",
	}, []string{"result"}) // result: updated|failed

	StoriesPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stories_pruned_total",
		Help: "Stories borradas por el retention pruner",
	})

	NotificationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notificaciones creadas por el fan-out de achievements",
	})

	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dropped_total",
		Help: "Eventos descartados por cola llena",
	}, []string{"kind"})

	EventHandlerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_handler_failures_total",
		Help: "Handlers de eventos que retornaron error",
	}, []string{"kind"})
)

// Register registra las métricas de dominio en el registry dado (o el
// default si es nil), ignorando duplicados.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		TokenExchanges,
		DecayRuns,
		DecayChildren,
		StoriesPruned,
		NotificationsCreated,
		EventsDropped,
		EventHandlerFailures,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
