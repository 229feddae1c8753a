package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/repository/sqlite"
	"github.com/msomdec/strikkeguide/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Cost 4 keeps bcrypt fast in tests.
	return service.NewAuthService(db.Users(), testJWTSecret, 4), db
}

func newTestProjectService(t *testing.T) (*service.ProjectService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	return service.NewProjectService(db.Projects(), db.Counters(), db.Files(), db.Users()), db
}

func createUser(t *testing.T, db *sqlite.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, DisplayName: "Strikker", PasswordHash: "x"}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func ptr[T any](v T) *T { return &v }

// testDocument is a three-size sweater with one generated and one named
// placeholder.
func testDocument() *domain.PatternDocument {
	return &domain.PatternDocument{
		Title:       "Solsikkegenser",
		Description: "Rundfelt genser i ull.",
		Difficulty:  domain.DifficultyIntermediate,
		Sizes:       []string{"S", "M", "L"},
		Gauge:       domain.Gauge{StitchesPer10cm: ptr(22.0), RowsPer10cm: ptr(30.0)},
		Needles:     []string{"3 mm", "3,5 mm"},
		Yarn:        &domain.Yarn{Name: "Sunday", Type: "Merinoull"},
		YarnAmounts: domain.SizeBinding{"S": 300, "M": 350, "L": 400},
		Steps: []domain.Step{
			{
				Title:       "Halskant",
				Description: "Legg opp {count_0} masker på pinne 3.",
				SizeSpecificValues: []domain.SizeSpecificValue{
					{Placeholder: "{count_0}", Values: domain.SizeBinding{"S": 96, "M": 104, "L": 112}},
				},
			},
			{
				Title:       "Bærestykke",
				Description: "Øk til [bærestykke] masker.",
				SizeSpecificValues: []domain.SizeSpecificValue{
					{Placeholder: "[bærestykke]", Values: domain.SizeBinding{"S": 240, "M": 260, "L": 280}},
				},
			},
			{Title: "Montering", Description: "Fest alle tråder."},
		},
	}
}
