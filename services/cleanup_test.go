package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
)

func TestCleanupRunsHooksInRegistrationOrder(t *testing.T) {
	registry := NewCleanupRegistry()
	var order []string
	for _, name := range []string{"likes", "comments", "files"} {
		hookName := name
		registry.Register("video", CleanupHook{
			Name: hookName,
			Run: func(ctx context.Context, exec repositories.SQLExecutor, entityID int) error {
				order = append(order, hookName)
				return nil
			},
		})
	}

	if err := registry.RunAll(context.Background(), nil, "video", 7); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if got := strings.Join(order, ","); got != "likes,comments,files" {
		t.Fatalf("hook order = %s", got)
	}
}

func TestCleanupFirstErrorAborts(t *testing.T) {
	registry := NewCleanupRegistry()
	boom := errors.New("boom")
	ran := false

	registry.Register("user", CleanupHook{
		Name: "failing",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, entityID int) error {
			return boom
		},
	})
	registry.Register("user", CleanupHook{
		Name: "never",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, entityID int) error {
			ran = true
			return nil
		},
	})

	err := registry.RunAll(context.Background(), nil, "user", 1)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
	if ran {
		t.Fatal("hook after the failing one must not run")
	}
	if !strings.Contains(err.Error(), "failing") {
		t.Fatalf("error should name the failed hook: %v", err)
	}
}

// Каскад удаления аккаунта в той же связке хуков, что и в cmd/main.go:
// турниры пользователя, его регистрации, команда и висящие токены должны
// уйти до DELETE FROM users, иначе внешние ключи не дадут удалить строку.
func TestUserCleanupRemovesOwnedGamingData(t *testing.T) {
	users := newFakeUserRepo()
	tournaments := newFakeTournamentRepo()
	teams := newFakeTeamRepo()
	ctx := context.Background()

	registry := NewCleanupRegistry()
	registry.Register("user", CleanupHook{
		Name: "user_tournaments",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			ids, err := tournaments.ListIDsByOwner(ctx, exec, userID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := tournaments.DeleteRegistrations(ctx, exec, id); err != nil {
					return err
				}
				if err := tournaments.Delete(ctx, exec, id); err != nil {
					return err
				}
			}
			return nil
		},
	})
	registry.Register("user", CleanupHook{
		Name: "user_tournament_entries",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return tournaments.DetachUser(ctx, exec, userID)
		},
	})
	registry.Register("user", CleanupHook{
		Name: "user_teams",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return teams.DetachUser(ctx, exec, userID)
		},
	})
	registry.Register("user", CleanupHook{
		Name: "user_tokens",
		Run: func(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
			return users.DeleteTokens(ctx, exec, userID)
		},
	})

	owner := users.addUser(models.User{UserName: "owner", Email: "owner@test.dev"})
	rival := users.addUser(models.User{UserName: "rival", Email: "rival@test.dev"})

	owned := tournaments.addTournament(models.Tournament{Title: "Owned Cup", OwnerID: owner.ID, PlayerLimit: 8})
	foreign := tournaments.addTournament(models.Tournament{Title: "Rival Cup", OwnerID: rival.ID, PlayerLimit: 8})
	if err := tournaments.AddPlayer(ctx, owned.ID, rival.ID, 8); err != nil {
		t.Fatalf("seed owned tournament player: %v", err)
	}
	if err := tournaments.AddPlayer(ctx, foreign.ID, owner.ID, 8); err != nil {
		t.Fatalf("seed foreign tournament player: %v", err)
	}

	teams.addTeam(models.Team{Name: "Owner Squad", OwnerID: owner.ID, MemberLimit: 5})
	rivalTeam := teams.addTeam(models.Team{Name: "Rival Squad", OwnerID: rival.ID, MemberLimit: 5}, owner.ID)

	if err := users.CreateEmailVerification(ctx, &models.EmailVerification{
		UserID: owner.ID, Token: "owner-verify", ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed verification: %v", err)
	}
	if err := users.CreatePasswordReset(ctx, &models.PasswordReset{
		UserID: owner.ID, Token: "owner-reset", ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed reset: %v", err)
	}
	if err := users.CreateEmailVerification(ctx, &models.EmailVerification{
		UserID: rival.ID, Token: "rival-verify", ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed rival verification: %v", err)
	}

	if err := registry.RunAll(ctx, nil, "user", owner.ID); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if err := users.Delete(ctx, nil, owner.ID); err != nil {
		t.Fatalf("delete user after cleanup: %v", err)
	}

	if _, err := tournaments.GetByID(ctx, owned.ID); !errors.Is(err, repositories.ErrTournamentNotFound) {
		t.Fatalf("owned tournament must be removed, got %v", err)
	}
	if _, err := tournaments.GetByID(ctx, foreign.ID); err != nil {
		t.Fatalf("foreign tournament must survive: %v", err)
	}
	players, err := tournaments.ListPlayers(ctx, foreign.ID)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("registration in foreign tournament must be removed, got %d players", len(players))
	}

	if _, err := teams.FindByOwner(ctx, owner.ID); !errors.Is(err, repositories.ErrTeamNotFound) {
		t.Fatalf("owned team must be removed, got %v", err)
	}
	memberIDs, err := teams.ListMemberIDs(ctx, rivalTeam.ID)
	if err != nil {
		t.Fatalf("ListMemberIDs: %v", err)
	}
	for _, id := range memberIDs {
		if id == owner.ID {
			t.Fatal("membership in foreign team must be removed")
		}
	}

	if _, err := users.GetEmailVerification(ctx, "owner-verify"); err == nil {
		t.Fatal("verification token must be removed")
	}
	if _, err := users.GetPasswordReset(ctx, "owner-reset"); err == nil {
		t.Fatal("reset token must be removed")
	}
	if _, err := users.GetEmailVerification(ctx, "rival-verify"); err != nil {
		t.Fatalf("rival verification token must survive: %v", err)
	}
}

func TestCleanupUnknownEntityIsNoop(t *testing.T) {
	registry := NewCleanupRegistry()
	if err := registry.RunAll(context.Background(), nil, "ghost", 1); err != nil {
		t.Fatalf("RunAll for unregistered type: %v", err)
	}
}
