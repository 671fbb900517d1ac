package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/seenelm/tanwir-students-sub000/core"
	"github.com/seenelm/tanwir-students-sub000/core/user"
	dummydb "github.com/seenelm/tanwir-students-sub000/storage/database/dummy"
)

func newTestService(t *testing.T) user.ServiceInterface {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	return user.NewService(dummydb.NewUserRepository(db))
}

func Test_service_Create(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Name:     " Bilal Ibn Rabah ",
		Username: " Bilal ",
		Email:    "Bilal@Test.cd",
		Password: "LeTemps-des-M0squees",
		Roles:    []string{user.RoleStudent},
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if usr.ID == "" {
		t.Fatal("Create() did not set ID")
	}
	if usr.Name != "Bilal Ibn Rabah" || usr.Username != "bilal" || usr.Email != "bilal@test.cd" {
		t.Errorf("Create() did not clean fields: %+v", usr)
	}
	if usr.IsActive == nil || !*usr.IsActive {
		t.Error("Create() did not activate user")
	}
	if err = usr.CheckPassword("LeTemps-des-M0squees"); err != nil {
		t.Errorf("CheckPassword(): %v", err)
	}
	if err = usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
	if !usr.IsStudent() || usr.IsTeacher() || usr.IsAdmin() {
		t.Errorf("unexpected roles: %v", usr.Roles)
	}

	// duplicate username
	_, err = svc.Create(ctx, user.NewUser{Username: "bilal", Email: "other@test.cd", Password: "LeTemps-des-M0squees"})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("Create(duplicate) error = %v, want ValidationError", err)
	}

	// duplicate email
	_, err = svc.Create(ctx, user.NewUser{Username: "other", Email: "bilal@test.cd", Password: "LeTemps-des-M0squees"})
	if !errors.As(err, &vErr) {
		t.Errorf("Create(duplicate email) error = %v, want ValidationError", err)
	}
}

func Test_service_GetByUsernameOrEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Username: "zayd", Email: "zayd@test.cd", Password: "LeTemps-des-M0squees"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	for _, uname := range []string{"zayd", "ZAYD", "zayd@test.cd", "Zayd@Test.cd"} {
		got, err := svc.GetByUsernameOrEmail(ctx, uname)
		if err != nil {
			t.Errorf("GetByUsernameOrEmail(%q): %v", uname, err)
			continue
		}
		if got.ID != usr.ID {
			t.Errorf("GetByUsernameOrEmail(%q) = %s, want %s", uname, got.ID, usr.ID)
		}
	}

	if _, err = svc.GetByUsernameOrEmail(ctx, "nope"); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("GetByUsernameOrEmail(unknown) error = %v, want ErrNotFound", err)
	}
}

func Test_service_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Username: "hamza", Email: "hamza@test.cd", Password: "LeTemps-des-M0squees",
		Roles: []string{user.RoleStudent},
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err = svc.Create(ctx, user.NewUser{Username: "taken", Email: "taken@test.cd", Password: "LeTemps-des-M0squees"}); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	// partial update leaves other fields alone
	updated, err := svc.Update(ctx, usr.ID, user.UpdateUser{Name: "Hamza Ibn Abd al-Muttalib"})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if updated.Name != "Hamza Ibn Abd al-Muttalib" {
		t.Errorf("Update() name = %q", updated.Name)
	}
	if updated.Username != "hamza" || updated.Email != "hamza@test.cd" {
		t.Errorf("Update() changed untouched fields: %+v", updated)
	}
	if len(updated.Roles) != 1 || updated.Roles[0] != user.RoleStudent {
		t.Errorf("Update() changed roles: %v", updated.Roles)
	}

	// deactivation
	f := false
	updated, err = svc.Update(ctx, usr.ID, user.UpdateUser{IsActive: &f})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if updated.IsActive == nil || *updated.IsActive {
		t.Error("Update() did not deactivate user")
	}

	// renaming to a taken username fails
	_, err = svc.Update(ctx, usr.ID, user.UpdateUser{Username: "taken"})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("Update(taken username) error = %v, want ValidationError", err)
	}

	// renaming to own (unchanged) username is fine
	if _, err = svc.Update(ctx, usr.ID, user.UpdateUser{Username: "hamza"}); err != nil {
		t.Errorf("Update(own username): %v", err)
	}

	if _, err = svc.Update(ctx, "nope", user.UpdateUser{}); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
}

func Test_service_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Username: "musab", Email: "musab@test.cd", Password: "LeTemps-des-M0squees"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	if err = svc.Delete(ctx, usr.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err = svc.GetByID(ctx, usr.ID); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("GetByID(deleted) error = %v, want ErrNotFound", err)
	}
}
