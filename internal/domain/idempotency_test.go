package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_UniqueScopeKey(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q to exist", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_scope_key") {
		t.Fatalf("expected composite index ux_user_scope_key to exist")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:         "id-1",
		UserID:     "u1",
		Scope:      "feedback",
		Key:        "k1",
		ResourceID: "f1",
		Status:     201,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Scope != "feedback" || got.ResourceID != "f1" || got.Status != 201 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be set automatically")
	}

	dup := &Idempotency{ID: "id-2", UserID: "u1", Scope: "feedback", Key: "k1", ResourceID: "f2", Status: 201, ExpiresAt: now}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, scope, key)")
	}

	// Same key under another scope is fine.
	other := &Idempotency{ID: "id-3", UserID: "u1", Scope: "contact", Key: "k1", ResourceID: "c1", Status: 201, ExpiresAt: now}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("insert other scope: %v", err)
	}
}
