package kv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/skeletor601/BL4-SaveEditor/internal/kv"
	"github.com/skeletor601/BL4-SaveEditor/internal/testutil"
)

func newSlots(t *testing.T) kv.Slots {
	t.Helper()
	s, err := kv.NewSQLiteSlots(context.Background(), testutil.NewStore(t))
	if err != nil {
		t.Fatalf("NewSQLiteSlots: %v", err)
	}
	return s
}

func TestSQLiteSlots_WriteAndRead(t *testing.T) {
	slots := newSlots(t)
	ctx := context.Background()

	if err := slots.Write(ctx, "bl4_parts_favorites_v2", `["Sure Shot"]`); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := slots.Read(ctx, "bl4_parts_favorites_v2")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != `["Sure Shot"]` {
		t.Errorf("Read = %q", got)
	}
}

func TestSQLiteSlots_Overwrite(t *testing.T) {
	slots := newSlots(t)
	ctx := context.Background()

	_ = slots.Write(ctx, "k", "one")
	if err := slots.Write(ctx, "k", "two"); err != nil {
		t.Fatalf("Write overwrite: %v", err)
	}
	got, _ := slots.Read(ctx, "k")
	if got != "two" {
		t.Errorf("Read = %q, want two", got)
	}
}

func TestSQLiteSlots_ReadMissing(t *testing.T) {
	slots := newSlots(t)
	if _, err := slots.Read(context.Background(), "missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Read missing = %v, want ErrNotFound", err)
	}
}

func TestSQLiteSlots_DeleteAndList(t *testing.T) {
	slots := newSlots(t)
	ctx := context.Background()

	_ = slots.Write(ctx, "b", "2")
	_ = slots.Write(ctx, "a", "1")

	all, err := slots.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Key != "a" || all[1].Key != "b" {
		t.Fatalf("List = %+v, want a then b", all)
	}
	if all[0].UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero")
	}

	if err := slots.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := slots.Delete(ctx, "a"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestNewSQLiteSlots_Idempotent(t *testing.T) {
	st := testutil.NewStore(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := kv.NewSQLiteSlots(ctx, st); err != nil {
			t.Fatalf("NewSQLiteSlots run %d: %v", i, err)
		}
	}
}
