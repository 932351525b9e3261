// FILE: lixenwraith/logship/shutdown.go
package logship

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// NotifyShutdown shuts the logger down on the first SIGINT or SIGTERM and then
// calls exit(0). Later signals are ignored. A nil exit uses os.Exit.
// The returned stop unregisters the handler.
func NotifyShutdown(l *Logger, timeout time.Duration, exit func(int)) (stop func()) {
	if exit == nil {
		exit = os.Exit
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stopWatch := watchSignals(sigCh, l, timeout, exit)

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			stopWatch()
		})
	}
}

// watchSignals runs the shutdown sequence for the first received signal
func watchSignals(sigCh <-chan os.Signal, l *Logger, timeout time.Duration, exit func(int)) (stop func()) {
	done := make(chan struct{})
	var fired sync.Once

	go func() {
		for {
			select {
			case sig := <-sigCh:
				fired.Do(func() {
					l.notice(LevelInfo, "shutdown signal received", Fields{"signal": sig.String()})
					if err := l.Shutdown(timeout); err != nil {
						l.notice(LevelWarn, "log shutdown incomplete", Fields{"error": err.Error()})
					}
					exit(0)
				})
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
