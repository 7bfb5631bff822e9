package keepalive

import (
	"log/slog"
	"sync"
)

// worker runs best-effort side effects (volume changes, notifications) in
// submission order on one goroutine so they never block the keeper.
type worker struct {
	log  *slog.Logger
	ops  chan op
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

type op struct {
	name string
	fn   func()
}

func newWorker(log *slog.Logger, size int) *worker {
	w := &worker{
		log:  log,
		ops:  make(chan op, size),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// Do queues fn. When the queue is full or the worker is closed the
// operation is dropped.
func (w *worker) Do(name string, fn func()) {
	select {
	case <-w.quit:
		return
	default:
	}
	select {
	case w.ops <- op{name: name, fn: fn}:
	default:
		w.log.Warn("dropping side effect, queue full", "op", name)
	}
}

func (w *worker) run() {
	defer close(w.done)
	for {
		select {
		case o := <-w.ops:
			w.exec(o)
		case <-w.quit:
			for {
				select {
				case o := <-w.ops:
					w.exec(o)
				default:
					return
				}
			}
		}
	}
}

func (w *worker) exec(o op) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("side effect panicked", "op", o.name, "panic", r)
		}
	}()
	o.fn()
}

// Close runs what is already queued and stops the worker.
func (w *worker) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}
