package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/retry"
)

type fakePutter struct {
	failures    int
	calls       int
	lastKey     string
	lastBody    string
	contentType string
}

func (p *fakePutter) Put(ctx context.Context, key string, body []byte, contentType string) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("slow down")
	}
	p.lastKey = key
	p.lastBody = string(body)
	p.contentType = contentType
	return nil
}

func testWriter(p *fakePutter) *Writer {
	return NewWriterWithPolicy(p, retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})
}

func TestWrite(t *testing.T) {
	putter := &fakePutter{}
	key, err := testWriter(putter).Write(context.Background(), 341, "document body")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if key != "kb-documents/341.txt" {
		t.Errorf("Expected deterministic key, got %q", key)
	}
	if putter.lastBody != "document body" {
		t.Errorf("Unexpected body: %q", putter.lastBody)
	}
	if putter.contentType != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected content type: %q", putter.contentType)
	}
}

func TestWrite_RetriesThenSucceeds(t *testing.T) {
	putter := &fakePutter{failures: 2}
	if _, err := testWriter(putter).Write(context.Background(), 341, "doc"); err != nil {
		t.Fatalf("Write failed despite retries: %v", err)
	}
	if putter.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", putter.calls)
	}
}

func TestWrite_ExhaustedRetries(t *testing.T) {
	putter := &fakePutter{failures: 10}
	_, err := testWriter(putter).Write(context.Background(), 341, "doc")
	if err == nil {
		t.Fatal("Expected error after exhausted retries")
	}
	kind, kctx := alert.Classify(err)
	if kind != alert.KindS3Write {
		t.Errorf("Expected %s, got %s", alert.KindS3Write, kind)
	}
	if kctx["episode"] != 341 {
		t.Errorf("Expected episode context, got %v", kctx)
	}
	if !strings.Contains(err.Error(), "slow down") {
		t.Errorf("Expected last underlying error message, got: %v", err)
	}
	if putter.calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", putter.calls)
	}
}

func TestWrite_SameEpisodeOverwrites(t *testing.T) {
	putter := &fakePutter{}
	w := testWriter(putter)

	first, _ := w.Write(context.Background(), 341, "version one")
	second, _ := w.Write(context.Background(), 341, "version two")

	if first != second {
		t.Errorf("Keys must be stable across writes: %q vs %q", first, second)
	}
	if putter.lastBody != "version two" {
		t.Errorf("Expected last write to win, got %q", putter.lastBody)
	}
}
