package admin

import (
	"testing"

	"github.com/lib/pq"
	"github.com/playmatatu/pinball/internal/models"
)

func TestHashAndVerifyToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("token stored in clear")
	}
	if !VerifyAdminToken(hash, "s3cret") {
		t.Error("matching token rejected")
	}
	if VerifyAdminToken(hash, "wrong") {
		t.Error("wrong token accepted")
	}
}

func TestIPAllowed(t *testing.T) {
	open := &models.AdminAccount{}
	if !IPAllowed(open, "10.0.0.1") {
		t.Error("empty allow list should allow any IP")
	}

	locked := &models.AdminAccount{AllowedIPs: pq.StringArray{"127.0.0.1"}}
	if !IPAllowed(locked, "127.0.0.1") || IPAllowed(locked, "10.0.0.1") {
		t.Error("allow list not enforced")
	}
}

func TestHasRole(t *testing.T) {
	ops := &models.AdminAccount{Roles: pq.StringArray{"operator"}}
	if !HasRole(ops, "operator") || HasRole(ops, "auditor") {
		t.Error("role check wrong for operator")
	}
	super := &models.AdminAccount{Roles: pq.StringArray{"super_admin"}}
	if !HasRole(super, "anything") {
		t.Error("super_admin should carry every role")
	}
}
