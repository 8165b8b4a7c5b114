package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func TestIdempotencyRepository_CreateAndGet(t *testing.T) {
	repo := NewIdempotencyRepository()

	record, err := repo.CreateProcessing("key-1", "hash-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create processing failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", record.Status)
	}

	got, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.RequestHash != "hash-1" {
		t.Fatalf("expected hash-1, got %s", got.RequestHash)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
}

func TestIdempotencyRepository_DuplicateKey(t *testing.T) {
	repo := NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create processing failed: %v", err)
	}

	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}

	if _, err := repo.CreateProcessing("key-1", "hash-2", time.Time{}); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}
}

func TestIdempotencyRepository_MarkDone(t *testing.T) {
	repo := NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create processing failed: %v", err)
	}

	if err := repo.MarkDone("key-1", []byte(`{"id":1}`), 201); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}

	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone {
		t.Fatalf("expected done status, got %s", record.Status)
	}
	if record.HTTPStatus != 201 {
		t.Fatalf("expected http status 201, got %d", record.HTTPStatus)
	}
	if string(record.ResponseBody) != `{"id":1}` {
		t.Fatalf("unexpected response body: %s", record.ResponseBody)
	}

	if err := repo.MarkFailed("missing", nil, 500); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	repo := NewIdempotencyRepository()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	if _, err := repo.CreateProcessing("expired-1", "h", past); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("expired-2", "h", past); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("alive", "h", future); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := repo.DeleteExpired(time.Now(), 10)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	if _, err := repo.Get("alive"); err != nil {
		t.Fatalf("live key must survive cleanup: %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpiredRespectsLimit(t *testing.T) {
	repo := NewIdempotencyRepository()

	past := time.Now().Add(-time.Hour)
	for _, key := range []string{"a", "b", "c"} {
		if _, err := repo.CreateProcessing(key, "h", past); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	deleted, err := repo.DeleteExpired(time.Now(), 2)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected batch of 2, got %d", deleted)
	}
}
