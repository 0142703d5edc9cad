// Package scheduler dispara un job una vez al día a una hora fija de una
// zona horaria dada. Timer simple de stdlib: sin cron, sin persistencia; si
// el proceso está caído a la hora programada, esa corrida se pierde (el job
// es idempotente y la corrida siguiente compensa).
package scheduler

import (
	"context"
	"time"

	"github.com/dropDatabas3/fabula/internal/observability/logger"
)

// Func es el job a ejecutar. El error solo se loguea: el scheduler nunca
// deja de reprogramar por un fallo del job.
type Func func(ctx context.Context) error

type Scheduler struct {
	name   string
	hour   int
	minute int
	loc    *time.Location
	fn     Func

	now func() time.Time // inyectable en tests
}

// New crea un scheduler diario para las hour:minute en loc.
func New(name string, hour, minute int, loc *time.Location, fn Func) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		name:   name,
		hour:   hour,
		minute: minute,
		loc:    loc,
		fn:     fn,
		now:    time.Now,
	}
}

// NextRun calcula la próxima ejecución estrictamente posterior a now.
// El cálculo se hace en la zona del scheduler, así la corrida queda anclada
// a la hora de pared local aunque cambie el offset (DST).
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run bloquea ejecutando el job cada día a la hora configurada, hasta que el
// contexto se cancele.
func (s *Scheduler) Run(ctx context.Context) {
	log := logger.From(ctx).With(logger.Job(s.name))

	for {
		now := s.now()
		next := s.NextRun(now)
		wait := next.Sub(now)
		log.Info("next run scheduled",
			logger.String("at", next.Format(time.RFC3339)),
			logger.Duration(wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		if err := s.fn(ctx); err != nil {
			log.Error("scheduled run failed", logger.Err(err))
		}
	}
}
