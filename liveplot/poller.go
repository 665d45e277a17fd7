package liveplot

import (
	"log"
	"sync"
	"time"

	"github.com/qtmlab/qtmtoolbox/dataset"
)

// Poller repeatedly locates the freshest data file under a directory and
// drives a Controller with it: a file-identity change triggers SelectFile,
// otherwise the tick is a cheap Refresh.
//
// Ticks run on a single goroutine and each tick completes before the next
// is considered, so ticks never re-enter.  Transient conditions (no files
// yet, a file mid-write) produce no update this tick and are retried on the
// next one; they are never fatal.
type Poller struct {
	Dir      string
	Suffix   string
	Interval time.Duration

	ctl *Controller

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewPoller returns a stopped Poller watching dir for files ending in
// suffix at the given interval
func NewPoller(ctl *Controller, dir, suffix string, interval time.Duration) *Poller {
	return &Poller{
		Dir:      dir,
		Suffix:   suffix,
		Interval: interval,
		ctl:      ctl,
	}
}

// Running reports whether the poll loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins polling.  Starting an already running Poller is a no-op;
// there is never more than one timer per plot window.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.running = true
	go p.run(p.stop, p.done)
}

// Stop cancels the poll loop and waits for it to wind down; no tick fires
// after Stop returns.  Stopping a stopped Poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	stop, done := p.stop, p.done
	p.running = false
	p.mu.Unlock()
	close(stop)
	<-done
}

func (p *Poller) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.tick()
		case <-stop:
			return
		}
	}
}

// tick is one atomic poll: locate the freshest file, then refresh or switch
func (p *Poller) tick() {
	path, err := dataset.Newest(p.Dir, p.Suffix)
	if err != nil {
		// nothing to show yet; try again next tick
		return
	}
	if path == p.ctl.CurrentPath() {
		err = p.ctl.Refresh()
	} else {
		err = p.ctl.SelectFile(path)
	}
	if err != nil {
		// e.g. the writer holds the file mid-write; the next tick retries
		log.Printf("liveplot: skipping update of %s: %v", path, err)
	}
}
