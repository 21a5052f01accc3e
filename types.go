package memorycard

import (
	"errors"
	"strings"
	"time"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/compose"
	"github.com/digitorus/memorycard/internal/render"
)

// ErrExportInProgress is returned when an export is started while another
// one is still running.
var ErrExportInProgress = errors.New("export already in progress")

// ValidationError lists the required fields that are empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required field(s): " + strings.Join(e.Fields, ", ")
}

// State is the generation state streamed to subscribers.
type State int

const (
	// Idle means no export is running.
	Idle State = iota
	// Generating means an export is between validation and delivery.
	Generating
)

func (s State) String() string {
	if s == Generating {
		return "generating"
	}
	return "idle"
}

// Request is a consistent snapshot of what to export.
type Request struct {
	Card    card.MemoryCard
	Options card.Options

	// Tree is the render of Card and Options. When set it is captured
	// instead of the tree the surface shows at capture time.
	Tree *render.Tree
}

// Result describes a delivered document.
type Result struct {
	// JobID identifies the export in logs.
	JobID    string
	Filename string
	// Location is where the deliverer put the document.
	Location string
	Size     int64
	Pages    int

	Scale     float64
	Placement compose.Placement
	Meta      compose.Metadata

	// Seal is the detached signature, nil when sealing is off.
	Seal []byte

	Duration time.Duration
}

// Severity classifies a notice.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notice is the user-facing outcome of a triggered export.
type Notice struct {
	Severity Severity
	Title    string
	Message  string

	// Result is set on success.
	Result *Result
	// Err is the cause on failure.
	Err error
}
