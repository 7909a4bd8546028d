// Package sqlitestorage implements the storage.Backend interface on a SQLite
// database. Waypoints are written synchronously; recordings are queued and
// drained in batches by a background writer.
package sqlitestorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/autoed/companion/internal/config"
	"github.com/autoed/companion/internal/database"
	"github.com/autoed/companion/internal/model"
	"github.com/autoed/companion/internal/model/convert"
	"github.com/autoed/companion/internal/queue"
	"github.com/autoed/companion/internal/storage"
	"github.com/autoed/companion/pkg/core"
)

const defaultFlushInterval = 5 * time.Second

type queues struct {
	Statuses     *queue.Queue[model.StatusRecord]
	Actions      *queue.Queue[model.ActionRecord]
	Performances *queue.Queue[model.Performance]
}

func newQueues(limit int) *queues {
	return &queues{
		Statuses:     queue.NewBounded[model.StatusRecord](limit),
		Actions:      queue.NewBounded[model.ActionRecord](limit),
		Performances: queue.NewBounded[model.Performance](limit),
	}
}

// Backend stores waypoints and recordings in SQLite.
type Backend struct {
	cfg config.SQLiteConfig
	db  *database.Manager
	log *slog.Logger

	queues    *queues
	sessionID atomic.Uint64

	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend. An empty cfg.Path keeps the
// database in memory.
func New(cfg config.SQLiteConfig, dbLog zerolog.Logger, log *slog.Logger) *Backend {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	return &Backend{
		cfg:    cfg,
		db:     database.NewManager(dbLog),
		log:    log,
		queues: newQueues(cfg.QueueLimit),
	}
}

// Init opens and migrates the database, then starts the writer.
func (b *Backend) Init() error {
	if err := b.db.Connect(b.cfg.Path); err != nil {
		return err
	}
	if err := b.db.Setup(); err != nil {
		b.db.Close()
		return err
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the writer, flushes what is queued and closes the database.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	if !b.db.IsValid {
		return nil
	}
	flushErr := b.Flush()
	return errors.Join(flushErr, b.db.Close())
}

// DB exposes the underlying connection for inspection.
func (b *Backend) DB() *gorm.DB {
	return b.db.DB
}

// LoadWaypoints returns the stored waypoints in their saved order.
func (b *Backend) LoadWaypoints() ([]core.Waypoint, error) {
	var rows []model.Waypoint
	if err := b.db.DB.Order("sort_order ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading waypoints: %w", err)
	}

	out := make([]core.Waypoint, 0, len(rows))
	var errs []error
	for _, row := range rows {
		w, err := convert.WaypointToCore(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, w)
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("%w: %w", storage.ErrCorruptWaypoints, errors.Join(errs...))
	}
	return out, nil
}

// SaveWaypoints replaces the stored collection in one transaction.
func (b *Backend) SaveWaypoints(waypoints []core.Waypoint) error {
	rows := make([]model.Waypoint, len(waypoints))
	for i, w := range waypoints {
		rows[i] = convert.WaypointToModel(w, i)
	}

	return b.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Waypoint{}).Error; err != nil {
			return fmt.Errorf("clearing waypoints: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("saving waypoints: %w", err)
		}
		return nil
	})
}

// StartSession creates the session row all later records belong to.
func (b *Backend) StartSession(info storage.SessionInfo) (uint, error) {
	s := model.Session{
		StartedAt:  info.StartedAt,
		StatusFile: info.StatusFile,
		Version:    info.Version,
		Host:       info.Host,
	}
	if err := b.db.DB.Create(&s).Error; err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}
	b.sessionID.Store(uint64(s.ID))
	b.log.Info("Session started", "sessionId", s.ID)
	return s.ID, nil
}

func (b *Backend) currentSession() (uint, error) {
	id := uint(b.sessionID.Load())
	if id == 0 {
		return 0, storage.ErrNoSession
	}
	return id, nil
}

// RecordSnapshot queues a status record.
func (b *Backend) RecordSnapshot(s core.Snapshot, velocity float64, velocityOK bool) error {
	id, err := b.currentSession()
	if err != nil {
		return err
	}
	b.queues.Statuses.Push(convert.SnapshotToRecord(id, s, velocity, velocityOK))
	return nil
}

// RecordAction queues an action record.
func (b *Backend) RecordAction(a core.Action, s core.Snapshot, at time.Time) error {
	id, err := b.currentSession()
	if err != nil {
		return err
	}
	b.queues.Actions.Push(convert.ActionToRecord(id, a, s.Flags, at))
	return nil
}

// RecordPerformance queues a performance sample.
func (b *Backend) RecordPerformance(p model.Performance) error {
	id, err := b.currentSession()
	if err != nil {
		return err
	}
	p.SessionID = id
	b.queues.Performances.Push(p)
	return nil
}

// QueueStats reports the number of queued rows and how many were dropped
// because the queues were full.
func (b *Backend) QueueStats() (int, uint64) {
	q := b.queues
	length := q.Statuses.Len() + q.Actions.Len() + q.Performances.Len()
	dropped := q.Statuses.Dropped() + q.Actions.Dropped() + q.Performances.Dropped()
	return length, dropped
}

// Flush writes every queued row now.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	return errors.Join(
		writeQueue(b.db.DB, b.queues.Statuses, "status records"),
		writeQueue(b.db.DB, b.queues.Actions, "action records"),
		writeQueue(b.db.DB, b.queues.Performances, "performance samples"),
	)
}

// writeQueue writes all items from a queue in a transaction. Failed items go
// back on the queue for the next attempt.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(&items).Error
	})
	if err != nil {
		q.Push(items...)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Flush(); err != nil {
				b.log.Error("Error flushing recordings", "error", err)
				continue
			}
			b.log.Debug("Flushed recordings", "took", time.Since(start))
		}
	}
}
