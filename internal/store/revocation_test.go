package store

import (
	"context"
	"testing"
	"time"
)

func TestRevocation(t *testing.T) {
	rs := NewRevocationStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	if err := rs.Revoke(ctx, "old", now.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke old: %v", err)
	}
	if err := rs.Revoke(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke live: %v", err)
	}
	if err := rs.Revoke(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke twice: %v", err)
	}

	revoked, err := rs.IsRevoked(ctx, "live")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Error("expected live token to be revoked")
	}
	revoked, err = rs.IsRevoked(ctx, "never")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Error("expected unknown token not to be revoked")
	}

	n, err := rs.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if revoked, _ := rs.IsRevoked(ctx, "old"); revoked {
		t.Error("expected expired revocation to be purged")
	}
	if revoked, _ := rs.IsRevoked(ctx, "live"); !revoked {
		t.Error("expected live revocation to survive purge")
	}
}
