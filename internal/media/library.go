// Package media resolves the decorative animations attached to replies.
package media

import (
	"math/rand/v2"
	"os"
	"path/filepath"
)

// Kind names the situation an animation decorates.
type Kind int

const (
	// None sends plain text.
	None Kind = iota
	// Welcome accompanies /start.
	Welcome
	// Success accompanies a committed basket item.
	Success
	// Refund accompanies a removed item.
	Refund
	// Reminder accompanies the countdown broadcast.
	Reminder
)

func (k Kind) String() string {
	switch k {
	case Welcome:
		return "welcome"
	case Success:
		return "success"
	case Refund:
		return "refund"
	case Reminder:
		return "reminder"
	default:
		return "none"
	}
}

var defaultFiles = map[Kind][]string{
	Welcome:  {"saw-jigsaw.gif"},
	Success:  {"meme1.gif", "meme2.gif", "meme3.gif", "meme4.gif", "meme5.gif", "meme7.gif", "meme8.gif"},
	Refund:   {"meme6.gif"},
	Reminder: {"time1.gif"},
}

// Library maps kinds to GIF files inside a directory.
type Library struct {
	dir   string
	files map[Kind][]string
	pick  func(n int) int
}

// NewLibrary creates a Library rooted at dir using the stock file names.
func NewLibrary(dir string) *Library {
	return &Library{
		dir:   dir,
		files: defaultFiles,
		pick:  rand.IntN,
	}
}

// Path returns an existing file for kind. Pools are sampled at random.
// The second result is false when nothing usable is on disk.
func (l *Library) Path(kind Kind) (string, bool) {
	if l == nil || l.dir == "" {
		return "", false
	}

	pool := l.files[kind]
	if len(pool) == 0 {
		return "", false
	}

	p := filepath.Join(l.dir, pool[l.pick(len(pool))])
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
