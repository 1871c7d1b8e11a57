// Package watcher delivers filesystem change notifications for one watch
// root.
//
// The package implements a hybrid strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: polling for environments where fsnotify fails (network
//     mounts, exhausted inotify limits, Docker volumes)
//
// Raw notifications are classified into three operations (create, modify,
// delete) and delivered one by one, in the order the backend produced them.
// Nothing is debounced or dropped by this package; a slow consumer applies
// back-pressure instead. Two rules keep one change to one event:
//   - The first write to a file within CreateWindow of its create belongs to
//     the create.
//   - A metadata notification is a modify only when the file's mtime moved;
//     permission and ownership changes alone are not reported.
//
// When a directory appears under a recursive root, it is subscribed and then
// walked, and everything already inside it is reported as created.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, "/srv/incoming"); err != nil {
//	    return err
//	}
//
//	for event := range w.Events() {
//	    fmt.Println(event.Operation, event.Path)
//	}
package watcher
