package ingest

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches source paths and triggers a callback when they change,
// debounced so bursts of writes produce a single trigger. Missing paths are
// skipped; a watcher with nothing to watch is reported as nil.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	trigger  func()
	log      zerolog.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher over the given paths. Returns (nil, nil)
// when none of the paths exist.
func NewWatcher(paths []string, trigger func(), log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		debounce: 2 * time.Second,
		trigger:  trigger,
		log:      log.With().Str("component", "source-watcher").Logger(),
		done:     make(chan struct{}),
	}

	added := 0
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			w.log.Debug().Str("path", path).Msg("skipping missing source path")
			continue
		}
		if err := fw.Add(path); err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("failed to watch source path")
			continue
		}
		added++
	}

	if added == 0 {
		fw.Close()
		return nil, nil
	}
	return w, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("source changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")

		case <-w.done:
			return
		}
	}
}
