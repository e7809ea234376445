package groupstore_test

import (
	"errors"
	"testing"

	groupstore "github.com/gatherhq/gatherhub/internal/app/store/groups"
	"github.com/gatherhq/gatherhub/internal/app/system/indexes"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")

	created, err := store.Create(ctx, models.Group{
		Name:      "Hiking Club",
		CreatorID: creator.ID,
		Settings:  models.GroupSettings{AllowMemberPosts: true},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Privacy != models.GroupPublic {
		t.Errorf("expected public privacy by default, got %q", created.Privacy)
	}
	if len(created.Members) != 1 {
		t.Fatalf("expected the creator as sole member, got %d members", len(created.Members))
	}
	if created.Members[0].UserID != creator.ID || created.Members[0].Role != models.RoleAdmin {
		t.Errorf("expected creator as admin, got %+v", created.Members[0])
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := store.Create(ctx, models.Group{Name: "Book Club", CreatorID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err = store.Create(ctx, models.Group{Name: "Book Club", CreatorID: primitive.NewObjectID()})
	if !errors.Is(err, groupstore.ErrDuplicateGroupName) {
		t.Errorf("expected ErrDuplicateGroupName, got %v", err)
	}
}

func TestStore_AddMember_Dedupes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	member := fixtures.CreateUser(ctx, "Member", "member@example.com")
	group := fixtures.CreateGroup(ctx, creator.ID, "Chess Club", models.GroupPublic)

	if err := store.AddMember(ctx, group.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, group.ID, member.ID, models.RoleMember); !errors.Is(err, groupstore.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(got.Members))
	}
}

func TestStore_JoinRequest_Flow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	applicant := fixtures.CreateUser(ctx, "Applicant", "applicant@example.com")
	group := fixtures.CreateGroup(ctx, creator.ID, "Private Club", models.GroupPrivate)

	if err := store.QueueJoinRequest(ctx, group.ID, applicant.ID); err != nil {
		t.Fatalf("QueueJoinRequest failed: %v", err)
	}
	// Duplicate requests collapse.
	if err := store.QueueJoinRequest(ctx, group.ID, applicant.ID); !errors.Is(err, groupstore.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember for duplicate request, got %v", err)
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.PendingRequests) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(got.PendingRequests))
	}

	// Approval adds the member and clears the request.
	if err := store.AddMember(ctx, group.ID, applicant.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	got, err = store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.PendingRequests) != 0 {
		t.Errorf("expected pending requests to be cleared, got %d", len(got.PendingRequests))
	}
	if !got.IsMember(applicant.ID) {
		t.Error("expected applicant to be a member after approval")
	}
}

func TestStore_RemoveMember_CreatorBlocked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	group := fixtures.CreateGroup(ctx, creator.ID, "Founders", models.GroupPublic)

	if err := store.RemoveMember(ctx, group.ID, creator.ID); !errors.Is(err, groupstore.ErrCreatorCannotLeave) {
		t.Errorf("expected ErrCreatorCannotLeave, got %v", err)
	}
}

func TestStore_TransferOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	successor := fixtures.CreateUser(ctx, "Successor", "successor@example.com")
	group := fixtures.CreateGroup(ctx, creator.ID, "Handover", models.GroupPublic)
	fixtures.AddGroupMember(ctx, group.ID, successor.ID, models.RoleMember)

	if err := store.TransferOwnership(ctx, group.ID, successor.ID); err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}

	got, err := store.GetByID(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CreatorID != successor.ID {
		t.Errorf("expected creator to be %v, got %v", successor.ID, got.CreatorID)
	}
	if !got.IsAdmin(successor.ID) {
		t.Error("expected new owner to hold the admin role")
	}

	// The outgoing creator may leave now.
	if err := store.RemoveMember(ctx, group.ID, creator.ID); err != nil {
		t.Fatalf("RemoveMember after transfer failed: %v", err)
	}
}

func TestStore_List_HidesSecretFromNonMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	outsider := fixtures.CreateUser(ctx, "Outsider", "outsider@example.com")
	fixtures.CreateGroup(ctx, creator.ID, "Open Group", models.GroupPublic)
	secret := fixtures.CreateGroup(ctx, creator.ID, "Hidden Group", models.GroupSecret)

	groups, total, err := store.List(ctx, outsider.ID, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(groups) != 1 {
		t.Fatalf("expected only the public group, got %d (total %d)", len(groups), total)
	}
	if groups[0].ID == secret.ID {
		t.Error("secret group leaked into a non-member listing")
	}

	// Members see their secret groups.
	groups, _, err = store.List(ctx, creator.ID, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("expected the creator to see both groups, got %d", len(groups))
	}
}
