package rbac

import "testing"

func TestResourceQuotaCheck(t *testing.T) {
	q := NewResourceQuota(10, 4.0, 1<<30)

	if err := q.Check(&ResourceUsage{ConcurrentTasks: 5}); err != nil {
		t.Fatalf("expected usage within quota, got %v", err)
	}

	if err := q.Check(&ResourceUsage{ConcurrentTasks: 11}); err == nil {
		t.Fatal("expected quota violation for concurrent tasks")
	}
}

func TestQuotaPercentageThresholds(t *testing.T) {
	q := NewResourceQuota(10, 0, 0)
	pct := q.Percentage(&ResourceUsage{ConcurrentTasks: 9})

	if !pct.IsNearQuota() {
		t.Fatal("expected 90% to be near quota")
	}
	if pct.IsOverQuota() {
		t.Fatal("90% should not be over quota")
	}
}

func TestGetBuiltinRoleAdminHasWildcard(t *testing.T) {
	role := GetBuiltinRole(RoleAdmin)
	if role == nil {
		t.Fatal("expected admin role to exist")
	}
	if !role.HasPermission("task", ActionExecute) {
		t.Fatal("admin should have execute permission on any resource")
	}
}

func TestGetBuiltinRoleUnknown(t *testing.T) {
	if GetBuiltinRole("nonexistent") != nil {
		t.Fatal("expected nil for unknown role")
	}
}
