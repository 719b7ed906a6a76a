package ws

import (
	"errors"

	"github.com/coreman2200/ledstrip/internal/app"
	"github.com/coreman2200/ledstrip/internal/scene"
	"github.com/coreman2200/ledstrip/internal/sequence"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is the reply to every scene or action message.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

func (d Diagnostic) OK() bool { return d.Severity == Info }

func accepted(code, summary string) Diagnostic {
	return Diagnostic{Severity: Info, Code: code, Summary: summary}
}

// rejected classifies err for the client.
func rejected(prefix string, err error, payload []byte) Diagnostic {
	d := Diagnostic{Severity: Err, Detail: err.Error(), Evidence: map[string]any{"bytes": len(payload)}}
	switch {
	case errors.Is(err, app.ErrRateLimited):
		d.Severity, d.Code, d.Summary = Warn, "RATE.LIMITED", "Too many updates; try again shortly"
	case errors.Is(err, scene.ErrTruncatedBuffer):
		d.Code, d.Summary = prefix+".TRUNCATED", "Payload ended early"
	case errors.Is(err, scene.ErrUnknownScene):
		d.Code, d.Summary = prefix+".UNKNOWN_SCENE", "Unknown scene tag"
	case errors.Is(err, scene.ErrUnknownColorType):
		d.Code, d.Summary = prefix+".UNKNOWN_COLOR_TYPE", "Unknown color type"
	case errors.Is(err, scene.ErrMalformedSequence):
		d.Code, d.Summary = prefix+".MALFORMED", "Sequence length is not a whole number of elements"
	case errors.Is(err, sequence.ErrUnknownAction):
		d.Code, d.Summary = prefix+".UNKNOWN", "Unknown action byte"
	default:
		d.Code, d.Summary = prefix+".REJECTED", "Message rejected"
	}
	return d
}
