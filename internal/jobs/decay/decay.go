// Package decay implementa el job diario de decaimiento de stats de la
// mascota virtual: la felicidad, energía y conocimiento bajan un paso por
// día sin uso, con piso en cero.
package decay

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/fabula/internal/metrics"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/store/core"
)

// Deltas diarios por stat. El piso es core.StatMin; nunca se sube un stat.
const (
	HappinessDelta = 5
	EnergyDelta    = 10
	KnowledgeDelta = 2
)

const defaultPageSize = 200

// Store es lo que el job necesita del repositorio.
type Store interface {
	ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	ListChildren(ctx context.Context, accountID string) ([]core.ChildProfile, error)
	UpdatePetStats(ctx context.Context, accountID string, stats map[string]core.PetStats) error
}

// Report resume una corrida del job.
type Report struct {
	Accounts        int
	AccountsFailed  int
	ChildrenUpdated int
	ChildrenFailed  int
	Started         time.Time
	Elapsed         time.Duration
}

type Job struct {
	store    Store
	workers  int
	pageSize int
}

// New crea el job. workers limita las cuentas procesadas en paralelo.
func New(store Store, workers, pageSize int) *Job {
	if workers <= 0 {
		workers = 4
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Job{store: store, workers: workers, pageSize: pageSize}
}

// Run recorre todas las cuentas por keyset y aplica el decay por cuenta.
// Las fallas se aíslan por cuenta: una cuenta que falla no detiene la
// corrida, solo queda contada y logueada.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	log := logger.From(ctx).With(logger.Job("decay"))
	log.Info("decay run started")

	rep := &Report{Started: started}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)

	type accountResult struct {
		updated int
		failed  int
		aborted bool
	}
	results := make(chan accountResult)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			rep.Accounts++
			if r.aborted {
				rep.AccountsFailed++
			}
			rep.ChildrenUpdated += r.updated
			rep.ChildrenFailed += r.failed
		}
	}()

	var pageErr error
	afterID := ""
	for {
		ids, err := j.store.ListAccountIDs(ctx, afterID, j.pageSize)
		if err != nil {
			pageErr = fmt.Errorf("decay: list accounts after %q: %w", afterID, err)
			break
		}
		if len(ids) == 0 {
			break
		}
		afterID = ids[len(ids)-1]

		for _, id := range ids {
			id := id
			g.Go(func() error {
				// n son perfiles: los que se escribieron, o los que quedaron
				// sin escribir cuando el batch falló.
				n, err := j.decayAccount(gctx, id)
				if err != nil {
					log.Error("account decay failed",
						logger.AccountID(id),
						logger.Err(err),
					)
					metrics.DecayChildren.WithLabelValues("failed").Add(float64(n))
					results <- accountResult{failed: n, aborted: true}
					return nil // aislar: no cancelar el grupo
				}
				metrics.DecayChildren.WithLabelValues("updated").Add(float64(n))
				results <- accountResult{updated: n}
				return nil
			})
		}
	}

	_ = g.Wait()
	close(results)
	<-done

	rep.Elapsed = time.Since(started)

	switch {
	case pageErr != nil:
		metrics.DecayRuns.WithLabelValues("failed").Inc()
		log.Error("decay run aborted", logger.Err(pageErr))
		return rep, pageErr
	case rep.AccountsFailed > 0:
		metrics.DecayRuns.WithLabelValues("partial").Inc()
	default:
		metrics.DecayRuns.WithLabelValues("ok").Inc()
	}

	log.Info("decay run finished",
		logger.Int("accounts", rep.Accounts),
		logger.Int("accounts_failed", rep.AccountsFailed),
		logger.Int("children_updated", rep.ChildrenUpdated),
		logger.Int("children_failed", rep.ChildrenFailed),
		logger.Duration(rep.Elapsed),
	)
	return rep, nil
}

// decayAccount baja los stats de todos los perfiles de una cuenta y los
// persiste como un único batch atómico. Retorna cuántos perfiles tocó el
// intento; con error, es el tamaño del batch que no se escribió.
func (j *Job) decayAccount(ctx context.Context, accountID string) (int, error) {
	children, err := j.store.ListChildren(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("list children: %w", err)
	}
	if len(children) == 0 {
		return 0, nil
	}

	updates := make(map[string]core.PetStats, len(children))
	for _, c := range children {
		updates[c.ChildID] = c.PetStats.Normalize().Lower(HappinessDelta, EnergyDelta, KnowledgeDelta)
	}

	if err := j.store.UpdatePetStats(ctx, accountID, updates); err != nil {
		return len(updates), fmt.Errorf("update pet stats: %w", err)
	}
	return len(updates), nil
}
