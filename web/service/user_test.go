package service

import (
	"testing"

	"coupon-ui/database/model"
)

func TestFirstAdminProtection(t *testing.T) {
	db := newTestDB(t)
	tenants := NewTenantService(db)
	users := NewUserService(db)

	acme, owner, err := tenants.Signup("acme", "Acme", "owner", "pw")
	if err != nil {
		t.Fatal(err)
	}
	second, err := users.Create(acme.Id, "second", "pw", model.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	// The first admin can be neither demoted nor deleted.
	if err := users.UpdateRole(acme.Id, owner.Id, model.RoleStore); err != ErrFirstAdminProtected {
		t.Fatalf("demote first admin: got %v, want ErrFirstAdminProtected", err)
	}
	if err := users.Delete(acme.Id, owner.Id); err != ErrFirstAdminProtected {
		t.Fatalf("delete first admin: got %v, want ErrFirstAdminProtected", err)
	}

	// A later admin has no such protection.
	if err := users.UpdateRole(acme.Id, second.Id, model.RoleStore); err != nil {
		t.Fatalf("demote second admin: %v", err)
	}
	if err := users.Delete(acme.Id, second.Id); err != nil {
		t.Fatalf("delete second admin: %v", err)
	}

	// Non-critical fields stay mutable, first admin included.
	if err := users.ResetPassword(acme.Id, owner.Id, "newpw"); err != nil {
		t.Fatalf("reset first admin password: %v", err)
	}
}

func TestUserQueriesAreTenantScoped(t *testing.T) {
	db := newTestDB(t)
	tenants := NewTenantService(db)
	users := NewUserService(db)

	acme, ownerA, _ := tenants.Signup("acme", "Acme", "owner-a", "pw")
	beta, _, _ := tenants.Signup("beta", "Beta", "owner-b", "pw")

	// Acting through beta's scope on acme's user must come back not-found.
	if err := users.Delete(beta.Id, ownerA.Id); err != ErrUserNotFound {
		t.Fatalf("cross-tenant delete: got %v, want ErrUserNotFound", err)
	}

	list, err := users.List(acme.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Username != "owner-a" {
		t.Fatalf("acme user list = %+v", list)
	}
}

func TestCreateUserRejectsSuperadmin(t *testing.T) {
	db := newTestDB(t)
	tenants := NewTenantService(db)
	users := NewUserService(db)

	acme, _, _ := tenants.Signup("acme", "Acme", "owner", "pw")
	if _, err := users.Create(acme.Id, "evil", "pw", model.RoleSuperAdmin); err == nil {
		t.Fatal("creating a tenant-bound superadmin should fail")
	}
	if _, err := users.Create(acme.Id, "weird", "pw", model.Role("wizard")); err == nil {
		t.Fatal("unknown roles should fail")
	}
}
