package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/strikkeguide/internal/domain"
)

func TestProjectService_Create(t *testing.T) {
	svc, db := newTestProjectService(t)
	user := createUser(t, db, "designer@example.com")

	doc := testDocument()
	doc.Needles = append(doc.Needles, " 3 mm ")
	p, err := svc.Create(context.Background(), user.ID, doc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == 0 || p.PublicID == "" {
		t.Fatalf("expected ID and public ID, got %d %q", p.ID, p.PublicID)
	}
	if p.SelectedSize != "S" {
		t.Fatalf("expected first size selected, got %q", p.SelectedSize)
	}
	if p.Published {
		t.Fatal("new projects must be private")
	}
	if len(p.Document.Needles) != 2 {
		t.Fatalf("expected duplicate needle dropped, got %v", p.Document.Needles)
	}
	if len(doc.Needles) != 3 {
		t.Fatal("caller's document must not be modified")
	}
}

func TestProjectService_Create_OneSize(t *testing.T) {
	svc, db := newTestProjectService(t)
	user := createUser(t, db, "a@example.com")

	doc := &domain.PatternDocument{Title: "Lue", Steps: []domain.Step{{Title: "Lue", Description: "Legg opp 100 m."}}}
	p, err := svc.Create(context.Background(), user.ID, doc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.SelectedSize != domain.OneSize {
		t.Fatalf("expected %q, got %q", domain.OneSize, p.SelectedSize)
	}
	if p.Document.Difficulty != domain.DifficultyIntermediate {
		t.Fatalf("expected default difficulty, got %q", p.Document.Difficulty)
	}
}

func TestProjectService_Create_Invalid(t *testing.T) {
	svc, db := newTestProjectService(t)
	user := createUser(t, db, "a@example.com")

	undeclared := testDocument()
	undeclared.Steps[0].SizeSpecificValues[0].Values["XXL"] = 130
	unused := testDocument()
	unused.Steps[0].Description = "Legg opp masker."
	badDifficulty := testDocument()
	badDifficulty.Difficulty = "Ekspert"
	noTitle := testDocument()
	noTitle.Title = "  "

	tests := map[string]*domain.PatternDocument{
		"nil":                nil,
		"no title":           noTitle,
		"undeclared size":    undeclared,
		"unused token":       unused,
		"unknown difficulty": badDifficulty,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), user.ID, doc)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestProjectService_Get_Visibility(t *testing.T) {
	svc, db := newTestProjectService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")

	p, err := svc.Create(ctx, owner.ID, testDocument())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, owner.ID, p.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := svc.Get(ctx, other.ID, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("private project: expected ErrNotFound, got %v", err)
	}

	if _, err := svc.SetPublished(ctx, owner.ID, p.ID, true); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}
	got, err := svc.Get(ctx, other.ID, p.ID)
	if err != nil {
		t.Fatalf("published Get: %v", err)
	}
	if got.Document.Title != "Solsikkegenser" {
		t.Fatalf("unexpected title %q", got.Document.Title)
	}

	published, err := svc.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("expected 1 published project, got %d", len(published))
	}

	if _, err := svc.SetPublished(ctx, other.ID, p.ID, false); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestProjectService_Update_ClampsProgress(t *testing.T) {
	svc, db := newTestProjectService(t)
	ctx := context.Background()
	user := createUser(t, db, "a@example.com")

	p, err := svc.Create(ctx, user.ID, testDocument())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Projects().UpdateProgress(ctx, p.ID, "L", 2); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	doc := testDocument()
	doc.Sizes = []string{"S", "M"}
	delete(doc.YarnAmounts, "L")
	for _, v := range doc.Steps[0].SizeSpecificValues {
		delete(v.Values, "L")
	}
	for _, v := range doc.Steps[1].SizeSpecificValues {
		delete(v.Values, "L")
	}
	doc.Steps = doc.Steps[:2]

	updated, err := svc.Update(ctx, user.ID, p.ID, doc, true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.SelectedSize != "S" {
		t.Fatalf("expected size reset to S, got %q", updated.SelectedSize)
	}
	if updated.CurrentStep != 1 {
		t.Fatalf("expected step clamped to 1, got %d", updated.CurrentStep)
	}
	if !updated.Published {
		t.Fatal("expected published")
	}

	other := createUser(t, db, "b@example.com")
	if _, err := svc.Update(ctx, other.ID, p.ID, doc, false); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestProjectService_Copy(t *testing.T) {
	svc, db := newTestProjectService(t)
	ctx := context.Background()
	designer := createUser(t, db, "designer@example.com")
	knitter := createUser(t, db, "knitter@example.com")

	src, err := svc.Create(ctx, designer.ID, testDocument())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Copy(ctx, knitter.ID, src.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("copy of private project: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SetPublished(ctx, designer.ID, src.ID, true); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}

	cp, err := svc.Copy(ctx, knitter.ID, src.ID)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if cp.ID == src.ID || cp.PublicID == src.PublicID {
		t.Fatal("copy must be a new project")
	}
	if cp.UserID != knitter.ID || cp.Published {
		t.Fatalf("copy should be private to the knitter, got user %d published %v", cp.UserID, cp.Published)
	}
	if cp.Document.Title != "Solsikkegenser" {
		t.Fatalf("unexpected title %q", cp.Document.Title)
	}

	own, err := svc.Copy(ctx, designer.ID, src.ID)
	if err != nil {
		t.Fatalf("own Copy: %v", err)
	}
	if own.Document.Title != "Solsikkegenser (kopi)" {
		t.Fatalf("unexpected own copy title %q", own.Document.Title)
	}
}

func TestProjectService_DeleteRemovesOriginal(t *testing.T) {
	svc, db := newTestProjectService(t)
	ctx := context.Background()
	user := createUser(t, db, "a@example.com")

	if err := db.Files().Save(ctx, "originals/x", []byte("%PDF")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p, err := svc.CreateImported(ctx, user.ID, testDocument(), &domain.OriginalFile{
		Filename: "genser.pdf", ContentType: "application/pdf", StorageKey: "originals/x",
	})
	if err != nil {
		t.Fatalf("CreateImported: %v", err)
	}

	data, orig, err := svc.Original(ctx, user.ID, p.ID)
	if err != nil {
		t.Fatalf("Original: %v", err)
	}
	if string(data) != "%PDF" || orig.Filename != "genser.pdf" {
		t.Fatalf("unexpected original %q %+v", data, orig)
	}

	other := createUser(t, db, "b@example.com")
	if err := svc.Delete(ctx, other.ID, p.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Delete(ctx, user.ID, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Files().Get(ctx, "originals/x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected original removed, got %v", err)
	}
	if _, err := svc.Get(ctx, user.ID, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectService_OriginalMissing(t *testing.T) {
	svc, db := newTestProjectService(t)
	ctx := context.Background()
	user := createUser(t, db, "a@example.com")

	p, err := svc.Create(ctx, user.ID, testDocument())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := svc.Original(ctx, user.ID, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectService_KnittersCannotPublish(t *testing.T) {
	svc, db := newTestProjectService(t)
	ctx := context.Background()

	knitter := &domain.User{Email: "strikker@example.com", DisplayName: "Strikker", PasswordHash: "x", Role: domain.RoleKnitter}
	if err := db.Users().Create(ctx, knitter); err != nil {
		t.Fatalf("create user: %v", err)
	}
	p, err := svc.Create(ctx, knitter.ID, testDocument())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.SetPublished(ctx, knitter.ID, p.ID, true); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("SetPublished: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Update(ctx, knitter.ID, p.ID, testDocument(), true); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Update: expected ErrInvalidInput, got %v", err)
	}
	// Keeping a project private needs no publishing rights.
	if _, err := svc.Update(ctx, knitter.ID, p.ID, testDocument(), false); err != nil {
		t.Fatalf("Update private: %v", err)
	}

	designer := &domain.User{Email: "design@example.com", DisplayName: "Design", PasswordHash: "x", Role: domain.RoleDesigner}
	if err := db.Users().Create(ctx, designer); err != nil {
		t.Fatalf("create user: %v", err)
	}
	dp, err := svc.Create(ctx, designer.ID, testDocument())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.SetPublished(ctx, designer.ID, dp.ID, true); err != nil {
		t.Fatalf("designer SetPublished: %v", err)
	}
}
