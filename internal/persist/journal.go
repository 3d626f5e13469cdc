package persist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// JournalEntry is one session lifecycle event to record.
type JournalEntry struct {
	Event     string // "join", "rejoin", "disconnect", "removed", "kicked"
	CharName  string
	SessionID uint64
	Detail    string
}

// ArchiveEntry is the final resting state of a character removed from the
// world after its grace window expired.
type ArchiveEntry struct {
	CharName string
	X, Y     float64
}

// JournalRepo batches journal writes in single transactions.
type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// WriteBatch writes a batch of journal entries in one transaction.
func (r *JournalRepo) WriteBatch(ctx context.Context, entries []JournalEntry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_journal (event, char_name, session_id, detail)
			 VALUES ($1, $2, $3, $4)`,
			e.Event, e.CharName, int64(e.SessionID), e.Detail,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Archive records a removed character's final position.
func (r *JournalRepo) Archive(ctx context.Context, e ArchiveEntry) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO character_archive (char_name, pos_x, pos_y)
		 VALUES ($1, $2, $3)`,
		e.CharName, e.X, e.Y,
	)
	return err
}

// Writer decouples the game loop from the database: the loop enqueues
// records non-blocking, a background goroutine batches them to Postgres.
// A full queue drops the record — telemetry never stalls the tick.
type Writer struct {
	repo    *JournalRepo
	journal chan JournalEntry
	archive chan ArchiveEntry
	done    chan struct{}
	log     *zap.Logger
}

func NewWriter(repo *JournalRepo, log *zap.Logger) *Writer {
	return &Writer{
		repo:    repo,
		journal: make(chan JournalEntry, 1024),
		archive: make(chan ArchiveEntry, 256),
		done:    make(chan struct{}),
		log:     log,
	}
}

// Record enqueues a journal entry. Never blocks.
func (w *Writer) Record(e JournalEntry) {
	select {
	case w.journal <- e:
	default:
		w.log.Warn("日誌佇列已滿，丟棄記錄", zap.String("event", e.Event))
	}
}

// RecordArchive enqueues a character archive row. Never blocks.
func (w *Writer) RecordArchive(e ArchiveEntry) {
	select {
	case w.archive <- e:
	default:
		w.log.Warn("封存佇列已滿，丟棄記錄", zap.String("name", e.CharName))
	}
}

// Run drains the queues until Stop is called, batching journal entries once
// per second. Runs in its own goroutine.
func (w *Writer) Run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var batch []JournalEntry
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.repo.WriteBatch(ctx, batch); err != nil {
			w.log.Error("日誌批次寫入失敗", zap.Error(err), zap.Int("entries", len(batch)))
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case e := <-w.journal:
			batch = append(batch, e)
		case a := <-w.archive:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := w.repo.Archive(ctx, a); err != nil {
				w.log.Error("角色封存失敗", zap.Error(err), zap.String("name", a.CharName))
			}
			cancel()
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case e := <-w.journal:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Stop flushes pending entries and stops the writer goroutine.
func (w *Writer) Stop() {
	close(w.done)
}
