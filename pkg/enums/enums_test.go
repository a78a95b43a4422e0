package enums

import "testing"

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("admin")
	if err != nil || role != UserRoleAdmin {
		t.Fatalf("expected admin role, got %q (%v)", role, err)
	}
	if _, err := ParseUserRole("root"); err == nil {
		t.Fatal("expected invalid role error")
	}
	if UserRole("").IsValid() {
		t.Fatal("empty role should be invalid")
	}
}

func TestAuditActionLabels(t *testing.T) {
	if AuditActionLoginFailed.String() != "Tentativa de login inválida" {
		t.Fatalf("unexpected label %q", AuditActionLoginFailed)
	}
	if !AuditActionUserUnblocked.IsValid() {
		t.Fatal("expected unblock label to be valid")
	}
	if AuditAction("Login").IsValid() {
		t.Fatal("unexpected valid label")
	}
}
