package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"storage.db", "storage.db"},
		{"file:storage.db", "storage.db"},
		{"file:storage.db?_pragma=busy_timeout(5000)", "storage.db"},
		{"/tmp/my%20db.sqlite", "/tmp/my db.sqlite"},
	}
	for _, tt := range tests {
		if got := ExtractDBNameFromPath(tt.input); got != tt.want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		db, err := NewDB(path)
		if err != nil {
			t.Fatalf("NewDB() run %d error = %v", i, err)
		}
		CloseDB(db)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if got, err := store.GetSession(ctx, 42); err != nil || got != nil {
		t.Fatalf("GetSession() on empty store = %v, %v; want nil, nil", got, err)
	}

	session := &Session{
		UserID:         42,
		ChatID:         7,
		LastExpression: "x**2 - 4",
		LastCategory:   "expression",
		LastResult:     "x**2 - 4",
		UpdatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
	}
	if err := store.UpsertSession(ctx, session); err != nil {
		t.Fatalf("UpsertSession() error = %v", err)
	}

	got, err := store.GetSession(ctx, 42)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetSession() = nil, want live session")
	}
	if got.ChatID != 7 || got.LastExpression != "x**2 - 4" || got.LastCategory != "expression" {
		t.Errorf("GetSession() = %+v", got)
	}
	if !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, session.ExpiresAt)
	}

	session.LastExpression = "diff(x**2, x)"
	session.LastResult = "2*x"
	if err := store.UpsertSession(ctx, session); err != nil {
		t.Fatalf("second UpsertSession() error = %v", err)
	}
	got, err = store.GetSession(ctx, 42)
	if err != nil || got == nil {
		t.Fatalf("GetSession() after update = %v, %v", got, err)
	}
	if got.LastResult != "2*x" {
		t.Errorf("LastResult = %q, want %q", got.LastResult, "2*x")
	}
}

func TestExpiredSessionIsInvisibleAndPurged(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	past := time.Now().Add(-2 * time.Hour)

	expired := &Session{UserID: 1, ChatID: 1, UpdatedAt: past, ExpiresAt: past.Add(time.Hour)}
	live := &Session{UserID: 2, ChatID: 2, UpdatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	for _, s := range []*Session{expired, live} {
		if err := store.UpsertSession(ctx, s); err != nil {
			t.Fatalf("UpsertSession(%d) error = %v", s.UserID, err)
		}
	}

	if got, err := store.GetSession(ctx, 1); err != nil || got != nil {
		t.Errorf("GetSession(expired) = %v, %v; want nil, nil", got, err)
	}

	n, err := store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions() removed %d rows, want 1", n)
	}
	if got, err := store.GetSession(ctx, 2); err != nil || got == nil {
		t.Errorf("GetSession(live) = %v, %v; want session", got, err)
	}
}

func TestUpsertSessionValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name    string
		session *Session
	}{
		{"nil", nil},
		{"zero user", &Session{ChatID: 1, UpdatedAt: now, ExpiresAt: now.Add(time.Minute)}},
		{"expires before update", &Session{UserID: 1, UpdatedAt: now, ExpiresAt: now.Add(-time.Minute)}},
	}
	for _, tt := range tests {
		if err := store.UpsertSession(ctx, tt.session); err == nil {
			t.Errorf("%s: UpsertSession() error = nil, want error", tt.name)
		}
	}
}

func TestSolutionHistory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	expressions := []string{"2 + 2 * 2", "x**2 - 4", "diff(x**2, x)", "integrate(x, x)"}
	for i, expr := range expressions {
		sol := &Solution{
			UserID:     10,
			ChatID:     10,
			Expression: expr,
			Category:   "expression",
			Success:    i != 1,
			Result:     "r",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if i == 1 {
			sol.Result = ""
			sol.Error = "syntax error"
		}
		if err := store.SaveSolution(ctx, sol); err != nil {
			t.Fatalf("SaveSolution(%q) error = %v", expr, err)
		}
		if sol.ID == "" {
			t.Fatalf("SaveSolution(%q) left ID empty", expr)
		}
	}
	if err := store.SaveSolution(ctx, &Solution{UserID: 11, ChatID: 11, Expression: "1 + 1"}); err != nil {
		t.Fatalf("SaveSolution(other user) error = %v", err)
	}

	got, err := store.GetRecentSolutions(ctx, 10, 3)
	if err != nil {
		t.Fatalf("GetRecentSolutions() error = %v", err)
	}
	want := []string{"integrate(x, x)", "diff(x**2, x)", "x**2 - 4"}
	if len(got) != len(want) {
		t.Fatalf("GetRecentSolutions() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Expression != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i].Expression, want[i])
		}
	}
	if got[2].Success || got[2].Error != "syntax error" {
		t.Errorf("failed entry = %+v, want Success=false with error", got[2])
	}
	if !got[0].Success {
		t.Errorf("entry 0 Success = false, want true")
	}

	n, err := store.DeleteSolutionsBefore(ctx, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("DeleteSolutionsBefore() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteSolutionsBefore() removed %d rows, want 2", n)
	}
	got, err = store.GetRecentSolutions(ctx, 10, 10)
	if err != nil {
		t.Fatalf("GetRecentSolutions() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("remaining history = %d entries, want 2", len(got))
	}
}

func TestSaveSolutionValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for name, sol := range map[string]*Solution{
		"nil":              nil,
		"zero user":        {Expression: "1"},
		"empty expression": {UserID: 1},
	} {
		if err := store.SaveSolution(ctx, sol); err == nil {
			t.Errorf("%s: SaveSolution() error = nil, want error", name)
		}
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance() error = %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() after maintenance error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.RunSQLMaintenance(ctx); err == nil {
		t.Error("RunSQLMaintenance() on cancelled context error = nil, want error")
	}
}
