package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/timetable-share/internal/availability"
	"github.com/example/timetable-share/internal/persistence"
)

// StoreOpener returns a fresh, empty store for one subtest.
type StoreOpener func(t *testing.T) persistence.Store

// RunStoreContract exercises the behaviour every persistence.Store backend must share.
func RunStoreContract(t *testing.T, open StoreOpener) {
	t.Helper()

	t.Run("users", func(t *testing.T) { testUserContract(t, open(t)) })
	t.Run("friends", func(t *testing.T) { testFriendContract(t, open(t)) })
	t.Run("timetables", func(t *testing.T) { testTimetableContract(t, open(t)) })
	t.Run("sessions", func(t *testing.T) { testSessionContract(t, open(t)) })
	t.Run("delete cascades", func(t *testing.T) { testDeleteCascade(t, open(t)) })
}

func mustCreateUser(t *testing.T, store persistence.Store, opts ...UserOption) persistence.User {
	t.Helper()
	user := NewUserFixture(opts...).Persistence()
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", user.ID, err)
	}
	return user
}

func testUserContract(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	user := mustCreateUser(t, store, WithUserEmail("Alice@Example.com"), WithUserName("Alice"))

	fetched, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.Name != "Alice" || fetched.PasswordHash != user.PasswordHash {
		t.Fatalf("unexpected user data: %#v", fetched)
	}
	if !fetched.CreatedAt.Equal(user.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", user.CreatedAt, fetched.CreatedAt)
	}

	byEmail, err := store.GetUserByEmail(ctx, "  ALICE@example.COM ")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("expected %s, got %#v", user.ID, byEmail)
	}

	conflicting := NewUserFixture(WithUserEmail("alice@example.com")).Persistence()
	if err := store.CreateUser(ctx, conflicting); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected persistence.ErrDuplicate, got %v", err)
	}

	user.Name = "Alice Updated"
	user.UpdatedAt = user.UpdatedAt.Add(time.Hour)
	if err := store.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	fetched, _ = store.GetUser(ctx, user.ID)
	if fetched.Name != "Alice Updated" || !fetched.UpdatedAt.Equal(user.UpdatedAt) {
		t.Fatalf("unexpected updated user: %#v", fetched)
	}

	if err := store.UpdateUser(ctx, NewUserFixture().Persistence()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating a missing user, got %v", err)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if err := store.DeleteUser(ctx, user.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected persistence.ErrNotFound, got %v", err)
	}
	if _, err := store.GetUserByEmail(ctx, "alice@example.com"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected deleted email lookup to miss, got %v", err)
	}
}

func testFriendContract(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	owner := NewUserFixture()
	bob := NewUserFixture(WithUserName("Bob"))
	cat := NewUserFixture(WithUserName("Cat"))
	for _, u := range []UserFixture{owner, bob, cat} {
		if err := store.CreateUser(ctx, u.Persistence()); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	list, err := store.ListFriends(ctx, owner.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %#v (%v)", list, err)
	}

	for _, f := range []UserFixture{cat, bob, cat} {
		if err := store.AddFriend(ctx, owner.ID, f.FriendRef()); err != nil {
			t.Fatalf("AddFriend(%s) failed: %v", f.ID, err)
		}
	}
	list, err = store.ListFriends(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListFriends failed: %v", err)
	}
	if len(list) != 2 || list[0] != cat.FriendRef() || list[1] != bob.FriendRef() {
		t.Fatalf("expected [cat bob] in insertion order, got %#v", list)
	}

	if err := store.AddFriend(ctx, bob.ID, owner.FriendRef()); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}

	if err := store.RemoveFriend(ctx, owner.ID, cat.ID); err != nil {
		t.Fatalf("RemoveFriend failed: %v", err)
	}
	if err := store.RemoveFriend(ctx, owner.ID, "not-listed"); err != nil {
		t.Fatalf("expected removing an unlisted friend to be a no-op, got %v", err)
	}
	list, _ = store.ListFriends(ctx, owner.ID)
	if len(list) != 1 || list[0].UID != bob.ID {
		t.Fatalf("expected [bob], got %#v", list)
	}
	if back, _ := store.ListFriends(ctx, bob.ID); len(back) != 1 {
		t.Fatalf("expected bob's own list untouched, got %#v", back)
	}

	if err := store.RemoveFriendEverywhere(ctx, owner.ID); err != nil {
		t.Fatalf("RemoveFriendEverywhere failed: %v", err)
	}
	if back, _ := store.ListFriends(ctx, bob.ID); len(back) != 0 {
		t.Fatalf("expected owner removed from bob's list, got %#v", back)
	}

	if _, err := store.ListFriends(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}
	if err := store.AddFriend(ctx, "ghost", bob.FriendRef()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound adding to unknown owner, got %v", err)
	}
}

func testTimetableContract(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	user := mustCreateUser(t, store)

	if _, err := store.GetTimetable(ctx, user.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	first := Timetable(user.ID, availability.Cell{Slot: 0, Day: 0}, availability.Cell{Slot: 9, Day: 4})
	if err := store.SaveTimetable(ctx, first); err != nil {
		t.Fatalf("SaveTimetable failed: %v", err)
	}
	got, err := store.GetTimetable(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	if got.Grid != first.Grid {
		t.Fatalf("grid did not round-trip: %#v", got.Grid)
	}

	second := Timetable(user.ID, availability.Cell{Slot: 5, Day: 2})
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	second.UpdatedAt = first.UpdatedAt.Add(time.Hour)
	if err := store.SaveTimetable(ctx, second); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, _ = store.GetTimetable(ctx, user.ID)
	if got.Grid != second.Grid {
		t.Fatalf("expected whole grid replaced, got %#v", got.Grid)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) || !got.UpdatedAt.Equal(second.UpdatedAt) {
		t.Fatalf("expected created_at kept and updated_at advanced, got %v / %v", got.CreatedAt, got.UpdatedAt)
	}

	if err := store.SaveTimetable(ctx, persistence.Timetable{}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for missing user id, got %v", err)
	}
	if err := store.SaveTimetable(ctx, Timetable("ghost-user")); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation for unknown user, got %v", err)
	}

	if err := store.DeleteTimetable(ctx, user.ID); err != nil {
		t.Fatalf("DeleteTimetable failed: %v", err)
	}
	if err := store.DeleteTimetable(ctx, user.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testSessionContract(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	user := mustCreateUser(t, store)
	base := ReferenceTime().UTC()

	active := NewSessionFixture(user.ID).Persistence()
	expired := NewSessionFixture(user.ID, WithSessionExpiry(base.Add(-time.Minute))).Persistence()
	for _, s := range []persistence.Session{active, expired} {
		if _, err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) failed: %v", s.ID, err)
		}
	}
	if _, err := store.CreateSession(ctx, active); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated token, got %v", err)
	}

	got, err := store.GetSession(ctx, active.Token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.UserID != user.ID || !got.ExpiresAt.Equal(active.ExpiresAt) || got.RevokedAt != nil {
		t.Fatalf("unexpected session %#v", got)
	}

	rotated := got
	rotated.Token = "rotated-" + active.Token
	rotated.ExpiresAt = base.Add(48 * time.Hour)
	rotated.UpdatedAt = base.Add(time.Minute)
	if _, err := store.UpdateSession(ctx, rotated); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, active.Token); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected old token to miss after rotation, got %v", err)
	}
	got, err = store.GetSession(ctx, rotated.Token)
	if err != nil || !got.ExpiresAt.Equal(rotated.ExpiresAt) {
		t.Fatalf("expected rotated session, got %#v (%v)", got, err)
	}

	if err := store.DeleteExpiredSessions(ctx, base); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if _, err := store.GetSession(ctx, expired.Token); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session pruned, got %v", err)
	}

	revokedAt := base.Add(2 * time.Minute)
	revoked, err := store.RevokeSession(ctx, rotated.Token, revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Fatalf("expected revoked_at %v, got %v", revokedAt, revoked.RevokedAt)
	}
	if _, err := store.RevokeSession(ctx, "missing", revokedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound revoking unknown token, got %v", err)
	}

	other := NewSessionFixture(user.ID).Persistence()
	if _, err := store.CreateSession(ctx, other); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := store.RevokeUserSessions(ctx, user.ID, revokedAt); err != nil {
		t.Fatalf("RevokeUserSessions failed: %v", err)
	}
	got, _ = store.GetSession(ctx, other.Token)
	if got.RevokedAt == nil {
		t.Fatalf("expected every session of the user revoked")
	}
}

func testDeleteCascade(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	user := mustCreateUser(t, store)
	friend := mustCreateUser(t, store)

	if err := store.AddFriend(ctx, user.ID, persistence.FriendRef{UID: friend.ID, Email: friend.Email, Name: friend.Name}); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}
	if err := store.SaveTimetable(ctx, Timetable(user.ID, availability.Cell{Slot: 1, Day: 1})); err != nil {
		t.Fatalf("SaveTimetable failed: %v", err)
	}
	session := NewSessionFixture(user.ID).Persistence()
	if _, err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := store.GetTimetable(ctx, user.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected timetable removed with user, got %v", err)
	}
	if _, err := store.GetSession(ctx, session.Token); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected sessions removed with user, got %v", err)
	}
	if _, err := store.GetUser(ctx, friend.ID); err != nil {
		t.Fatalf("expected friend account untouched, got %v", err)
	}
}
