// spinner.go implements the progress spinner shown on terminals while cargo-revolve writes the source archive.
package ui

import (
	"fmt"
	"io"
	"time"
)

// StartSpinner prints a lightweight ASCII spinner until the returned
// stop function is called. The stop function prints either "[done]"
// or "[fail]" depending on the success flag. Calling stop more than
// once only prints the first status.
func StartSpinner(w io.Writer, message string) func(success bool) {
	return startSpinner(w, message, 120*time.Millisecond)
}

func startSpinner(w io.Writer, message string, interval time.Duration) func(success bool) {
	frames := []rune{'|', '/', '-', '\\'}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		idx := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %c", message, frames[idx])
				idx = (idx + 1) % len(frames)
			}
		}
	}()
	return func(success bool) {
		select {
		case <-done:
			return
		default:
			close(done)
		}
		<-exited
		status := ColorizeStatus("done")
		if !success {
			status = ColorizeStatus("fail")
		}
		fmt.Fprintf(w, "\r%s [%s]\n", message, status)
	}
}
