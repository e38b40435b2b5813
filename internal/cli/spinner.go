package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// spinnerFrames is the braille animation cycle shared by all spinners.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is a stderr progress indicator for operations with no
// incremental output, like a Graphviz render.
type Spinner struct {
	message string
	quit    chan struct{}
	done    chan struct{}
}

// newSpinner creates a spinner with the given message.
func newSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the animation. Stop must be called before writing any
// other output to stderr.
func (s *Spinner) Start() {
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
		}
	}
}

// Stop halts the animation and clears the spinner's line.
func (s *Spinner) Stop() {
	close(s.quit)
	<-s.done
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}
