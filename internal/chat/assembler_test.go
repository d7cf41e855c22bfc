package chat

import (
	"strings"
	"testing"
)

func TestAssemblerSplitLineRecombination(t *testing.T) {
	var deltas []string
	a := NewAssembler(func(d string) { deltas = append(deltas, d) })

	a.Feed([]byte(`data: {"choices":[{"delta":{"content":"Hel`))
	if a.Text() != "" {
		t.Fatalf("partial line must not emit, got %q", a.Text())
	}

	a.Feed([]byte("lo\"}}]}\n"))
	if a.Text() != "Hello" {
		t.Fatalf("expected recombined delta Hello, got %q", a.Text())
	}
	if len(deltas) != 1 || deltas[0] != "Hello" {
		t.Fatalf("expected exactly one delta callback, got %v", deltas)
	}
}

func TestAssemblerCommentAndBlankLines(t *testing.T) {
	a := NewAssembler(nil)
	a.Feed([]byte(": keep-alive\n"))
	a.Feed([]byte("\n"))
	a.Feed([]byte("\r\n"))

	if a.Text() != "" || a.Deltas() != 0 {
		t.Fatalf("comment/blank lines must not change state, got %q", a.Text())
	}
}

func TestAssemblerIgnoresNonDataLines(t *testing.T) {
	a := NewAssembler(nil)
	a.Feed([]byte("event: ping\n"))
	a.Feed([]byte("id: 42\n"))
	if a.Deltas() != 0 {
		t.Fatal("non-data lines must be ignored")
	}
}

func TestAssemblerDoneSentinel(t *testing.T) {
	a := NewAssembler(nil)
	a.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n"))
	a.Feed([]byte("data: [DONE]\n"))

	if !a.Done() {
		t.Fatal("expected Done after sentinel")
	}
	if a.Text() != "hi" {
		t.Fatalf("expected text preserved, got %q", a.Text())
	}

	// Input after the sentinel never changes state; the read loop still
	// drains the transport separately.
	a.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n"))
	if a.Text() != "hi" {
		t.Fatalf("post-DONE delta applied: %q", a.Text())
	}
}

func TestAssemblerMultipleDeltasOneChunk(t *testing.T) {
	a := NewAssembler(nil)
	chunk := "data: {\"choices\":[{\"delta\":{\"content\":\"one \"}}]}\n" +
		": comment\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"two\"}}]}\n"
	a.Feed([]byte(chunk))

	if a.Text() != "one two" {
		t.Fatalf("expected accumulated text, got %q", a.Text())
	}
	if a.Deltas() != 2 {
		t.Fatalf("expected 2 deltas, got %d", a.Deltas())
	}
}

func TestAssemblerCarriageReturns(t *testing.T) {
	a := NewAssembler(nil)
	a.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"crlf\"}}]}\r\n"))
	if a.Text() != "crlf" {
		t.Fatalf("CRLF line not handled, got %q", a.Text())
	}
}

func TestAssemblerEmptyDelta(t *testing.T) {
	a := NewAssembler(nil)
	a.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"\"}}]}\n"))
	a.Feed([]byte("data: {\"choices\":[]}\n"))
	if a.Deltas() != 0 {
		t.Fatalf("empty deltas must not count, got %d", a.Deltas())
	}
}

func TestAssemblerByteAtATime(t *testing.T) {
	a := NewAssembler(nil)
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"slow\"}}]}\ndata: [DONE]\n"
	for i := 0; i < len(stream); i++ {
		a.Feed([]byte{stream[i]})
	}
	if a.Text() != "slow" {
		t.Fatalf("byte-at-a-time feed failed, got %q", a.Text())
	}
	if !a.Done() {
		t.Fatal("expected Done")
	}
}

func TestAssemblerLongDeltaAcrossManyChunks(t *testing.T) {
	want := strings.Repeat("lorem ipsum ", 50)
	line := "data: {\"choices\":[{\"delta\":{\"content\":\"" + want + "\"}}]}\n"

	a := NewAssembler(nil)
	for len(line) > 0 {
		n := 7
		if n > len(line) {
			n = len(line)
		}
		a.Feed([]byte(line[:n]))
		line = line[n:]
	}
	if a.Text() != want {
		t.Fatalf("long delta mangled across chunk boundaries")
	}
}
