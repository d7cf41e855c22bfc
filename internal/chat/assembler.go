package chat

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// streamEvent is the shape of one gateway SSE payload. Only the first
// choice's delta content is consumed.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Assembler reconstructs the assistant reply from a chunked SSE-style byte
// stream. Chunk boundaries do not align with line boundaries: input is
// buffered across Feed calls, and a line whose JSON payload is still
// incomplete is deferred, never dropped, until more bytes arrive.
type Assembler struct {
	buf     []byte
	text    strings.Builder
	done    bool
	deltas  int
	onDelta func(delta string)
}

// NewAssembler creates an assembler. onDelta, if non-nil, fires once per
// content delta with the new fragment.
func NewAssembler(onDelta func(delta string)) *Assembler {
	return &Assembler{onDelta: onDelta}
}

// Feed consumes the next chunk of stream bytes, emitting any content deltas
// completed by it. Once the [DONE] sentinel has been seen, further input is
// ignored; the caller still drains the underlying stream until it reports
// completion on its own.
func (a *Assembler) Feed(chunk []byte) {
	if a.done {
		return
	}
	a.buf = append(a.buf, chunk...)

	for len(a.buf) > 0 {
		line, rest, terminated := nextLine(a.buf)

		trimmed := strings.TrimSuffix(string(line), "\r")
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, ":"):
			// Blank or comment line. Without its newline it may still be
			// the head of a longer line, so hold it.
			if !terminated {
				return
			}
			a.buf = rest

		case !strings.HasPrefix(trimmed, dataPrefix):
			if !terminated {
				return
			}
			a.buf = rest

		default:
			payload := strings.TrimSpace(trimmed[len(dataPrefix):])
			if payload == doneSentinel {
				if !terminated {
					return
				}
				a.done = true
				a.buf = nil
				return
			}

			var ev streamEvent
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				// Partial fragment straddling a chunk boundary: leave the
				// line at the front of the buffer and resume once more
				// bytes arrive.
				return
			}

			a.buf = rest
			if len(ev.Choices) > 0 {
				if delta := ev.Choices[0].Delta.Content; delta != "" {
					a.text.WriteString(delta)
					a.deltas++
					if a.onDelta != nil {
						a.onDelta(delta)
					}
				}
			}
		}
	}
}

// Text returns the assistant text accumulated so far.
func (a *Assembler) Text() string {
	return a.text.String()
}

// Done reports whether the [DONE] sentinel has been seen.
func (a *Assembler) Done() bool {
	return a.done
}

// Deltas returns how many content deltas have been applied.
func (a *Assembler) Deltas() int {
	return a.deltas
}

// nextLine splits buf at the first newline. terminated is false when no
// newline exists yet, in which case line is the whole buffer.
func nextLine(buf []byte) (line, rest []byte, terminated bool) {
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		return buf[:i], buf[i+1:], true
	}
	return buf, nil, false
}
