package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/recetar/recetar-api/internal/core/domain"
)

func TestObjectID(t *testing.T) {
	valid := primitive.NewObjectID()
	if got, ok := objectID(valid.Hex()); !ok || got != valid {
		t.Fatalf("expected %s, got %s (%v)", valid.Hex(), got.Hex(), ok)
	}
	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, ok := objectID(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestDuplicateUserError(t *testing.T) {
	cases := []struct {
		msg   string
		field string
	}{
		{`E11000 duplicate key error collection: recetar.users index: email_1 dup key: { email: "a@x.com" }`, "email"},
		{`E11000 duplicate key error collection: recetar.users index: username_1 dup key: { username: "email" }`, "username"},
	}
	for _, tc := range cases {
		ve, ok := domain.AsValidationError(duplicateUserError(errors.New(tc.msg)))
		if !ok {
			t.Fatalf("expected ValidationError")
		}
		if _, ok := ve.Fields[tc.field]; !ok || len(ve.Fields) != 1 {
			t.Fatalf("expected field %s, got %v", tc.field, ve.Fields)
		}
	}
}

func TestMongoUser_ToDomain(t *testing.T) {
	roleID := primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := mongoUser{
		ID:                  primitive.NewObjectID(),
		Username:            "ana",
		Email:               "ana@x.com",
		Password:            "$2a$10$hash",
		Roles:               []primitive.ObjectID{roleID},
		RefreshToken:        "r1",
		AuthenticationToken: "a1",
		CreatedAt:           now,
		RoleDocs:            []mongoRole{{ID: roleID, Role: domain.RolePharmacist}},
	}

	u := doc.toDomain()
	if u.ID != doc.ID.Hex() || u.Username != "ana" {
		t.Fatalf("unexpected user %+v", u)
	}
	if len(u.RoleIDs) != 1 || u.RoleIDs[0] != roleID.Hex() {
		t.Fatalf("unexpected role ids %v", u.RoleIDs)
	}
	if !u.HasRole(domain.RolePharmacist) {
		t.Fatalf("role names not resolved: %v", u.RoleNames)
	}
	if u.Password.Hash() != "$2a$10$hash" || u.RecoveryToken != "a1" || u.RefreshToken != "r1" {
		t.Fatalf("credentials not mapped: %+v", u)
	}
	if !u.CreatedAt.Equal(now) {
		t.Fatalf("createdAt not mapped")
	}
}
