package detection

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchRules watches a rules file and reloads the engine when it changes.
// Runs until the watcher fails; callers start it in a goroutine. A broken
// edit (unreadable file, bad regex) keeps the previous rule set active.
func WatchRules(filePath string, engine *Engine) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  [DETECTION] Failed to create rules watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  [DETECTION] Failed to resolve rules path %s: %v", filePath, err)
		return
	}

	// Watch the directory containing the file (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  [DETECTION] Failed to watch directory %s: %v", dir, err)
		return
	}

	log.Printf("👁️  [DETECTION] Watching %s for rule changes (hot-reload enabled)", filePath)

	// Debounce to avoid multiple reloads for rapid editor writes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, func() {
				rs, err := LoadRuleSet(absPath)
				if err != nil {
					log.Printf("⚠️  [DETECTION] Rules reload skipped, file unreadable: %v", err)
					return
				}
				if err := engine.Reload(rs); err != nil {
					log.Printf("⚠️  [DETECTION] Rules reload skipped, invalid rules: %v", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  [DETECTION] Rules watcher error: %v", err)
		}
	}
}
