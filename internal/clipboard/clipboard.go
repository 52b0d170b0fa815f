package clipboard

import (
	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
)

// Writer copies text to a clipboard, reporting success as a bool. Failures
// are expected (headless machines have no clipboard) and never fatal.
type Writer interface {
	Write(text string) bool
}

// System writes to the OS clipboard.
type System struct {
	Log *zerolog.Logger
}

// Write copies text to the system clipboard, best effort.
func (s System) Write(text string) bool {
	if err := clipboard.WriteAll(text); err != nil {
		if s.Log != nil {
			s.Log.Warn().Err(err).Msg("clipboard write failed")
		}
		return false
	}
	return true
}
