package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpulse/pushgate/internal/protocol"
)

// Config holds journal batching settings.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 1 * time.Second,
	}
}

// Stats holds journal runtime counters.
type Stats struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// Journal batches delivered messages and writes them to Postgres.
type Journal struct {
	cfg    Config
	logger *slog.Logger

	db *pgxpool.Pool

	batch       []row
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats Stats
}

// row is one journaled message.
type row struct {
	MessageID   string
	Type        string
	SequenceNum int64
	Timestamp   time.Time
	Payload     []byte
}

// New creates a journal writing to db.
func New(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}

	return &Journal{
		cfg:    cfg,
		logger: logger,
		db:     db,
		batch:  make([]row, 0, cfg.BatchSize),
	}
}

// Start begins the periodic flush loop.
func (j *Journal) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.flushTicker = time.NewTicker(j.cfg.FlushInterval)

	j.wg.Add(1)
	go j.flushLoop()

	j.logger.Info("journal started",
		"batch_size", j.cfg.BatchSize,
		"flush_interval", j.cfg.FlushInterval,
	)
	return nil
}

// Stop flushes any remaining rows and shuts down.
func (j *Journal) Stop(ctx context.Context) error {
	j.logger.Info("stopping journal")

	if j.cancel != nil {
		j.cancel()
	}
	if j.flushTicker != nil {
		j.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		j.logger.Warn("journal stop timed out")
	}

	// Final flush on the caller's context; the lifecycle context is
	// already cancelled and would drop the tail batch.
	j.flush(ctx)

	j.logger.Info("journal stopped")
	return nil
}

// Record queues one delivered message for journaling.
func (j *Journal) Record(msg protocol.Message) {
	r := j.transform(msg)

	j.batchMu.Lock()
	j.batch = append(j.batch, r)
	shouldFlush := len(j.batch) >= j.cfg.BatchSize
	j.batchMu.Unlock()

	if shouldFlush {
		j.flush(j.ctx)
	}
}

// Stats returns current counters.
func (j *Journal) Stats() Stats {
	j.batchMu.Lock()
	defer j.batchMu.Unlock()
	return j.stats
}

// transform converts a message to a journal row. Undecodable payloads
// degrade to null, never block journaling.
func (j *Journal) transform(msg protocol.Message) row {
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		payload = nil
	}
	return row{
		MessageID:   msg.ID,
		Type:        string(msg.Type),
		SequenceNum: int64(msg.SequenceNum),
		Timestamp:   msg.Timestamp,
		Payload:     payload,
	}
}

// flushLoop periodically flushes the batch.
func (j *Journal) flushLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-j.flushTicker.C:
			j.flush(j.ctx)
		}
	}
}

// flush writes the current batch to the database on ctx. A done
// context cannot carry the batch, so it stays queued for a later
// flush instead of being consumed and lost.
func (j *Journal) flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	j.batchMu.Lock()
	if len(j.batch) == 0 {
		j.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := j.batch
	j.batch = make([]row, 0, j.cfg.BatchSize)
	j.batchMu.Unlock()

	start := time.Now()

	conflicts, err := j.batchInsert(ctx, batch)
	if err != nil {
		j.logger.Error("batch insert failed", "error", err, "count", len(batch))
		j.batchMu.Lock()
		j.stats.Errors++
		j.batchMu.Unlock()
		return
	}

	j.batchMu.Lock()
	j.stats.Inserts += int64(len(batch) - conflicts)
	j.stats.Conflicts += int64(conflicts)
	j.stats.Flushes++
	j.batchMu.Unlock()

	j.logger.Debug("flushed journal",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING,
// so replaying an already-journaled message is harmless.
func (j *Journal) batchInsert(ctx context.Context, rows []row) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO delivered_messages (message_id, type, sequence_number, ts, payload)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (message_id) DO NOTHING
		`, r.MessageID, r.Type, r.SequenceNum, r.Timestamp, r.Payload)
	}

	results := j.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
