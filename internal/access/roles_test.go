package access

import "testing"

func TestRoleOrder_Monotonic(t *testing.T) {
	ordered := []Role{RoleUnverified, RoleVerified, RoleStreamer, RoleMember, RolePremium, RoleElevated, RoleAdmin}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i].AtLeast(ordered[i-1]) {
			t.Fatalf("%s should be at least %s", ordered[i], ordered[i-1])
		}
		if ordered[i-1].AtLeast(ordered[i]) {
			t.Fatalf("%s should not reach %s", ordered[i-1], ordered[i])
		}
	}
}

func TestStreamerPanel_Threshold(t *testing.T) {
	if CanAccessStreamerPanel(RoleVerified) {
		t.Fatal("verified must not reach the streamer panel")
	}
	for _, r := range []Role{RoleStreamer, RoleMember, RolePremium, RoleElevated, RoleAdmin} {
		if !CanAccessStreamerPanel(r) {
			t.Fatalf("%s should reach the streamer panel", r)
		}
	}
}

func TestAdminPanel_ExactMatchOnly(t *testing.T) {
	for _, r := range []Role{RoleUnverified, RoleVerified, RoleStreamer, RoleMember, RolePremium, RoleElevated} {
		if CanAccessAdminPanel(r) {
			t.Fatalf("%s must not reach the admin panel", r)
		}
	}
	if !CanAccessAdminPanel(RoleAdmin) {
		t.Fatal("admin should reach the admin panel")
	}
}

func TestParseRole_UnknownFailsClosed(t *testing.T) {
	r, ok := ParseRole("superuser")
	if ok {
		t.Fatal("unknown role must not parse")
	}
	if r != RoleUnverified {
		t.Fatalf("unknown role should read as %s, got %s", RoleUnverified, r)
	}

	r, ok = ParseRole("premium")
	if !ok || r != RolePremium {
		t.Fatalf("premium should parse, got %s ok=%v", r, ok)
	}
}
