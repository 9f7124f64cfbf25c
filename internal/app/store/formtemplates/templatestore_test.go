package templatestore_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	"github.com/NandaFebian/workorder-portal-sub000/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	created, err := store.Create(ctx, models.FormTemplate{
		CompanyID: company.ID,
		Title:     "Site Inspection",
		Type:      "inspection",
		Fields: []models.FormField{
			{Order: 1, Label: "Location", Type: models.FieldText, Required: true},
			{Order: 2, Label: "Notes", Type: models.FieldTextarea},
		},
		CreatedBy: owner.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.FormKey == "" {
		t.Error("expected FormKey to be assigned")
	}
	if created.Version != 0 {
		t.Errorf("Version: got %d, want 0", created.Version)
	}
	if created.TitleCI != "site inspection" {
		t.Errorf("TitleCI: got %q, want %q", created.TitleCI, "site inspection")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_DuplicateFieldOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")

	_, err := store.Create(ctx, models.FormTemplate{
		CompanyID: company.ID,
		Title:     "Broken",
		Type:      "general",
		Fields: []models.FormField{
			{Order: 1, Label: "A", Type: models.FieldText},
			{Order: 1, Label: "B", Type: models.FieldText},
		},
	})
	if err != templatestore.ErrDuplicateFieldOrder {
		t.Errorf("expected ErrDuplicateFieldOrder, got %v", err)
	}
}

func TestStore_UpdateNewVersion_IncrementsByOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	v0 := fixtures.CreateTemplate(ctx, company.ID, "Checklist", 3)

	v1, err := store.UpdateNewVersion(ctx, company.ID, v0.FormKey, owner.ID, templatestore.Patch{
		Title: strPtr("Checklist v2"),
	})
	if err != nil {
		t.Fatalf("first UpdateNewVersion failed: %v", err)
	}
	if v1.Version != 1 {
		t.Errorf("Version: got %d, want 1", v1.Version)
	}
	if v1.FormKey != v0.FormKey {
		t.Errorf("FormKey changed across versions: %q -> %q", v0.FormKey, v1.FormKey)
	}
	if v1.ID == v0.ID {
		t.Error("expected a new document id for the new version")
	}

	v2, err := store.UpdateNewVersion(ctx, company.ID, v0.FormKey, owner.ID, templatestore.Patch{
		Description: strPtr("updated"),
	})
	if err != nil {
		t.Fatalf("second UpdateNewVersion failed: %v", err)
	}
	if v2.Version != 2 {
		t.Errorf("Version: got %d, want 2", v2.Version)
	}
}

func TestStore_UpdateNewVersion_OldVersionIntact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	v0 := fixtures.CreateTemplate(ctx, company.ID, "Shrinking Form", 3)

	twoFields := []models.FormField{
		{Order: 1, Label: "Field 1", Type: models.FieldText},
		{Order: 2, Label: "Field 2", Type: models.FieldText},
	}
	v1, err := store.UpdateNewVersion(ctx, company.ID, v0.FormKey, owner.ID, templatestore.Patch{
		Fields: &twoFields,
	})
	if err != nil {
		t.Fatalf("UpdateNewVersion failed: %v", err)
	}
	if len(v1.Fields) != 2 {
		t.Fatalf("v1 fields: got %d, want 2", len(v1.Fields))
	}

	// The original version must still be resolvable by id with all three
	// fields, so snapshots pointing at it keep rendering correctly.
	old, err := store.GetByID(ctx, v0.ID)
	if err != nil {
		t.Fatalf("GetByID(v0) failed: %v", err)
	}
	if old.Version != 0 {
		t.Errorf("old Version: got %d, want 0", old.Version)
	}
	if len(old.Fields) != 3 {
		t.Errorf("old fields: got %d, want 3", len(old.Fields))
	}

	latest, err := store.LatestByKey(ctx, v0.FormKey)
	if err != nil {
		t.Fatalf("LatestByKey failed: %v", err)
	}
	if latest.Version != 1 {
		t.Errorf("latest Version: got %d, want 1", latest.Version)
	}
	if len(latest.Fields) != 2 {
		t.Errorf("latest fields: got %d, want 2", len(latest.Fields))
	}
}

func TestStore_UpdateNewVersion_MergesUnsetFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	v0 := fixtures.CreateTemplate(ctx, company.ID, "Keep My Fields", 2)

	v1, err := store.UpdateNewVersion(ctx, company.ID, v0.FormKey, owner.ID, templatestore.Patch{
		Title: strPtr("Renamed"),
	})
	if err != nil {
		t.Fatalf("UpdateNewVersion failed: %v", err)
	}
	if v1.Title != "Renamed" {
		t.Errorf("Title: got %q, want %q", v1.Title, "Renamed")
	}
	if len(v1.Fields) != len(v0.Fields) {
		t.Errorf("fields not carried over: got %d, want %d", len(v1.Fields), len(v0.Fields))
	}
	if v1.Type != v0.Type {
		t.Errorf("Type not carried over: got %q, want %q", v1.Type, v0.Type)
	}
}

func TestStore_UpdateNewVersion_UnknownKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	_, err := store.UpdateNewVersion(ctx, company.ID, "no-such-key", owner.ID, templatestore.Patch{
		Title: strPtr("anything"),
	})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected fault.ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateNewVersion_OtherCompanyKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	companyA := fixtures.CreateCompany(ctx, "Company A")
	companyB := fixtures.CreateCompany(ctx, "Company B")
	owner := fixtures.CreateCompanyUser(ctx, companyB.ID, "owner@b.test")

	tmpl := fixtures.CreateTemplate(ctx, companyA.ID, "A's Form", 1)

	// Company B editing A's key must behave as if the key does not exist.
	_, err := store.UpdateNewVersion(ctx, companyB.ID, tmpl.FormKey, owner.ID, templatestore.Patch{
		Title: strPtr("hijack"),
	})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected fault.ErrNotFound, got %v", err)
	}
}

func TestStore_ListLatestForCompany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	a := fixtures.CreateTemplate(ctx, company.ID, "Alpha", 1)
	fixtures.CreateTemplate(ctx, company.ID, "Beta", 1)

	if _, err := store.UpdateNewVersion(ctx, company.ID, a.FormKey, owner.ID, templatestore.Patch{
		Title: strPtr("Alpha Edited"),
	}); err != nil {
		t.Fatalf("UpdateNewVersion failed: %v", err)
	}

	list, err := store.ListLatestForCompany(ctx, company.ID)
	if err != nil {
		t.Fatalf("ListLatestForCompany failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(list))
	}
	for _, tmpl := range list {
		if tmpl.FormKey == a.FormKey && tmpl.Version != 1 {
			t.Errorf("expected latest version of %q, got version %d", tmpl.FormKey, tmpl.Version)
		}
	}
}

func TestStore_ListVersions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	v0 := fixtures.CreateTemplate(ctx, company.ID, "History", 1)
	if _, err := store.UpdateNewVersion(ctx, company.ID, v0.FormKey, owner.ID, templatestore.Patch{
		Title: strPtr("History v2"),
	}); err != nil {
		t.Fatalf("UpdateNewVersion failed: %v", err)
	}

	versions, err := store.ListVersions(ctx, company.ID, v0.FormKey)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[0].Version != 1 || versions[1].Version != 0 {
		t.Errorf("expected newest first, got %d then %d", versions[0].Version, versions[1].Version)
	}
}

func TestStore_UpdateNewVersion_ConcurrentEditors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := templatestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")
	v0 := fixtures.CreateTemplate(ctx, company.ID, "Contended", 2)

	// Several editors race on the same key. Each either lands a new
	// version or reports a conflict; nobody may share a version number.
	const editors = 4
	errs := make(chan error, editors)
	var wg sync.WaitGroup
	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.UpdateNewVersion(ctx, company.ID, v0.FormKey, owner.ID, templatestore.Patch{
				Title: strPtr(fmt.Sprintf("Contended edit %d", i)),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, fault.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won == 0 {
		t.Fatal("expected at least one editor to win")
	}

	versions, err := store.ListVersions(ctx, company.ID, v0.FormKey)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != won+1 {
		t.Fatalf("expected %d versions, got %d", won+1, len(versions))
	}
	// Newest first, strictly decreasing by exactly one down to version 0.
	for i, tmpl := range versions {
		if want := len(versions) - 1 - i; tmpl.Version != want {
			t.Errorf("versions[%d]: got version %d, want %d", i, tmpl.Version, want)
		}
	}

	latest, err := store.LatestByKey(ctx, v0.FormKey)
	if err != nil {
		t.Fatalf("LatestByKey failed: %v", err)
	}
	if latest.Version != won {
		t.Errorf("latest version: got %d, want %d", latest.Version, won)
	}
}
