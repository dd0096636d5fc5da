// Package watcher re-validates the daemon's services.json whenever it
// changes on disk.
//
// The file is edited by hand and by the conduit CLI; a typo silently breaks
// the daemon at its next start. The Watcher uses fsnotify on the containing
// directory (editors replace files by rename, which a file watch would
// miss), debounces bursts of events, and reports every validation result.
//
// Example usage:
//
//	w, err := watcher.New(cfg.ServicesPath(home), logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer w.Close()
//
//	err = w.Run(ctx, func(r watcher.Result) {
//		if r.Err != nil {
//			fmt.Println("invalid:", r.Err)
//		}
//	})
//
// Run in the background with StartDaemon / StopDaemon, which manage a PID
// file the same way for every devboot subcommand.
package watcher
