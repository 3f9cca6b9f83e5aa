package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if store.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	info, err := store.Put(ctx, "exports/a.csv", strings.NewReader("id,amount\r\n"), PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"dataset": "march"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("id,amount\r\n")) || info.ContentType != "text/csv" {
		t.Fatalf("unexpected info: %+v", info)
	}

	// Create-only semantics.
	if _, err := store.Put(ctx, "exports/a.csv", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Fatalf("expected error on duplicate key")
	}

	got, rc, err := store.Get(ctx, "exports/a.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "id,amount\r\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Metadata["dataset"] != "march" {
		t.Fatalf("metadata lost: %+v", got)
	}

	head, err := store.Head(ctx, "exports/a.csv")
	if err != nil || head.Size != info.Size {
		t.Fatalf("head: %+v err=%v", head, err)
	}

	if _, err := store.PresignURL(ctx, "exports/a.csv", SignedURLOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	existed, err := store.Delete(ctx, "exports/a.csv")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "exports/a.csv")
	if err != nil || existed {
		t.Fatalf("second delete must be a no-op: existed=%v err=%v", existed, err)
	}
}

func TestMemoryStoreListPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	for _, key := range []string{"exports/b.json", "exports/a.csv", "other/c.pdf"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/a.csv" || infos[1].Key != "exports/b.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("full listing: %v err=%v", all, err)
	}
}
