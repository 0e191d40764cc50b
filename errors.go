package rawdec

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/vearutop/rawdec/engine"
)

// Op classifies the stage that failed.
type Op string

const (
	OpOpen      Op = "open"
	OpUnpack    Op = "unpack"
	OpThumbnail Op = "thumbnail"
	OpRender    Op = "render"
)

// Failure kinds for errors.Is.
var (
	ErrOpen      error = opKind(OpOpen)
	ErrUnpack    error = opKind(OpUnpack)
	ErrThumbnail error = opKind(OpThumbnail)
	ErrRender    error = opKind(OpRender)
)

// Status templates for errors.Is, they match a DecodeError of any Op.
var (
	ErrOutOfOrder  = &DecodeError{Code: engine.OutOfOrderCall, desc: "out of order call"}
	ErrClosed      = &DecodeError{Code: engine.InputClosed, desc: "session closed"}
	ErrNoThumbnail = &DecodeError{Code: engine.NoThumbnail, desc: "no thumbnail"}
)

// ErrReleased is returned when reading a Bitmap after Release.
var ErrReleased = errors.New("rawdec: bitmap released")

type opKind Op

func (k opKind) Error() string { return "rawdec: " + string(k) + " failed" }

// DecodeError carries an engine status code. The description is fetched from
// the engine on first use.
type DecodeError struct {
	Op   Op
	Call string
	Code engine.Status

	eng  engine.Engine
	once sync.Once
	desc string
}

func newDecodeError(eng engine.Engine, op Op, call string, code engine.Status) *DecodeError {
	return &DecodeError{Op: op, Call: call, Code: code, eng: eng}
}

// Description returns the engine's text for Code.
func (e *DecodeError) Description() string {
	e.once.Do(func() {
		if e.desc == "" && e.eng != nil {
			e.desc = e.eng.StrError(e.Code)
		}
		if e.desc == "" {
			e.desc = "engine status " + strconv.Itoa(int(e.Code))
		}
	})
	return e.desc
}

func (e *DecodeError) Error() string {
	prefix := "rawdec"
	if e.Op != "" {
		prefix += ": " + string(e.Op)
	}
	if e.Call != "" && e.Call != string(e.Op) {
		prefix += " (" + e.Call + ")"
	}
	return fmt.Sprintf("%s: %s (%d)", prefix, e.Description(), int(e.Code))
}

// Is matches failure kinds (ErrOpen, ErrUnpack, ...) by Op and other
// DecodeError values by Code.
func (e *DecodeError) Is(target error) bool {
	switch t := target.(type) {
	case opKind:
		return Op(t) == e.Op
	case *DecodeError:
		return t.Code == e.Code && (t.Op == "" || t.Op == e.Op)
	}
	return false
}

// Fatal reports whether the engine considers the context unusable.
func (e *DecodeError) Fatal() bool {
	return e.Code.Fatal()
}
