package similarity

import (
	"container/heap"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"autoqueue/internal/logging"
)

// Submission priorities. Lower values run first; equal priorities run in
// submission order.
const (
	PriorityInteractive = 0
	PriorityDefault     = 1
	PriorityMatch       = 2
	PriorityWrite       = 10
)

const defaultSubmitTimeout = 5 * time.Second

// Row is one result row from a store query, column values in select order.
type Row []any

type result struct {
	rows []Row
	err  error
}

type request struct {
	priority int
	seq      uint64
	query    string
	args     []any
	reply    chan result
	stop     bool
}

type requestHeap []*request

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(*request)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Store serializes every database operation through a single worker
// goroutine that owns the only SQLite connection. Submissions carry a
// priority; interactive reads jump ahead of batched writes.
type Store struct {
	logger *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending requestHeap
	seq     uint64
	closed  bool

	done chan struct{}
}

// OpenStore opens or creates the similarity database at path and starts
// the worker. The schema is created if missing.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open similarity database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create similarity schema: %w", err)
	}

	store := &Store{
		logger: logging.NewComponentLogger(logger, "similarity-store"),
		done:   make(chan struct{}),
	}
	store.cond = sync.NewCond(&store.mu)
	go store.run(db)
	return store, nil
}

// Submit queues a statement at the given priority and waits for the
// worker's reply. Non-select statements return a nil row slice. When ctx
// expires before the worker replies the call returns ErrStoreTimeout and
// the statement still executes in the background.
func (s *Store) Submit(ctx context.Context, priority int, query string, args ...any) ([]Row, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSubmitTimeout)
		defer cancel()
	}

	req := &request{
		priority: priority,
		query:    query,
		args:     args,
		reply:    make(chan result, 1),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	req.seq = s.seq
	s.seq++
	heap.Push(&s.pending, req)
	s.cond.Signal()
	s.mu.Unlock()

	select {
	case res := <-req.reply:
		return res.rows, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", ErrStoreTimeout, firstWord(query))
		}
		return nil, ctx.Err()
	}
}

// Close drains the queue, enqueues a stop sentinel behind all pending
// work, and waits for the worker to release the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	stop := &request{priority: PriorityWrite + 1, seq: s.seq, stop: true}
	s.seq++
	heap.Push(&s.pending, stop)
	s.cond.Signal()
	s.mu.Unlock()

	<-s.done
	return nil
}

func (s *Store) run(db *sql.DB) {
	defer close(s.done)
	defer db.Close()

	for {
		req := s.next()
		if req.stop {
			return
		}
		res := s.execute(db, req)
		if res.err != nil {
			s.logger.Error("statement failed",
				logging.String("statement", firstWord(req.query)),
				logging.Error(res.err))
		}
		req.reply <- res
	}
}

func (s *Store) next() *request {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending.Len() == 0 {
		s.cond.Wait()
	}
	return heap.Pop(&s.pending).(*request)
}

func (s *Store) execute(db *sql.DB, req *request) result {
	if !isSelect(req.query) {
		_, err := db.Exec(req.query, req.args...)
		return result{err: err}
	}

	rows, err := db.Query(req.query, req.args...)
	if err != nil {
		return result{err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return result{err: err}
	}

	var out []Row
	for rows.Next() {
		values := make(Row, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return result{err: err}
		}
		out = append(out, values)
	}
	return result{rows: out, err: rows.Err()}
}

func isSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

func firstWord(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
