package audio

import (
	"sync"
	"time"
)

// ----- Processes ----- //

// process is one named periodic or delayed job owning exactly one timer
// handle. stop is safe to call any number of times, including after the
// timer has already fired for the last time.
type process struct {
	name string
	stop func()
}

// startTicker runs tick on a fixed interval until tick returns false or the
// process is stopped.
func startTicker(name string, interval time.Duration, tick func() bool) *process {
	ticker := time.NewTicker(interval)
	quit := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !tick() {
					return
				}
			case <-quit:
				return
			}
		}
	}()
	var once sync.Once
	return &process{
		name: name,
		stop: func() {
			once.Do(func() { close(quit) })
		},
	}
}

// startTimer fires f once after d.
func startTimer(name string, d time.Duration, f func()) *process {
	timer := time.AfterFunc(d, f)
	return &process{
		name: name,
		stop: func() { timer.Stop() },
	}
}

// processGroup collects the processes of one mode (chaos, natal playback) so
// teardown is a single call. Manipulated only under the engine lock.
type processGroup struct {
	procs []*process
}

func (g *processGroup) add(p *process) {
	g.procs = append(g.procs, p)
}

// cancel stops every process; safe to call repeatedly.
func (g *processGroup) cancel() {
	for _, p := range g.procs {
		p.stop()
	}
	g.procs = nil
}

func (g *processGroup) size() int {
	return len(g.procs)
}
