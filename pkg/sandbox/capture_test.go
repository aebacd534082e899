package sandbox

import (
	"strings"
	"testing"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
	"github.com/fcchi/mcp-security-gateway/pkg/outputhub"
)

func TestCapturingSinkPublishesFullBytesToHub(t *testing.T) {
	hub := outputhub.New(outputhub.Config{})
	hub.CreateTopic("t1")
	sub := hub.Subscribe("t1")

	sink := newCapturingSink(hub, clock.System, "t1", 4)
	sink.Stdout([]byte("hello world"))
	hub.Close("t1")

	var total int
	for c := range sub.Chunks() {
		total += len(c.Bytes)
	}
	if total != len("hello world") {
		t.Fatalf("expected hub to see full bytes, got %d", total)
	}
}

func TestCapturingSinkTruncatesStoredCopy(t *testing.T) {
	hub := outputhub.New(outputhub.Config{})
	hub.CreateTopic("t1")

	sink := newCapturingSink(hub, clock.System, "t1", 4)
	sink.Stdout([]byte("hello world"))

	stdout, _, stdoutLen, _, truncated := sink.Captured()
	if !truncated {
		t.Fatal("expected truncated to be true")
	}
	if stdoutLen != int64(len("hello world")) {
		t.Fatalf("expected stdoutLen to track full size, got %d", stdoutLen)
	}
	if !strings.Contains(string(stdout), "truncated") {
		t.Fatalf("expected truncation marker in captured stdout, got %q", stdout)
	}
}

func TestCapturingSinkUntruncatedWhenWithinBudget(t *testing.T) {
	hub := outputhub.New(outputhub.Config{})
	hub.CreateTopic("t1")

	sink := newCapturingSink(hub, clock.System, "t1", 1024)
	sink.Stdout([]byte("hi"))
	sink.Stderr([]byte("err"))

	stdout, stderr, _, _, truncated := sink.Captured()
	if truncated {
		t.Fatal("expected no truncation within budget")
	}
	if string(stdout) != "hi" || string(stderr) != "err" {
		t.Fatalf("unexpected captured content: stdout=%q stderr=%q", stdout, stderr)
	}
}
