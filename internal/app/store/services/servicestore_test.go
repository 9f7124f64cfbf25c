package servicestore_test

import (
	"errors"
	"testing"

	servicestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/services"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	"github.com/NandaFebian/workorder-portal-sub000/internal/testutil"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := servicestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")
	intake := fixtures.CreateTemplate(ctx, company.ID, "Intake", 2)

	created, err := store.Create(ctx, models.Service{
		CompanyID: company.ID,
		Name:      "HVAC Maintenance",
		ClientIntakeForms: []models.ServiceFormRef{
			{Order: 1, FormKey: intake.FormKey},
		},
		CreatedBy: owner.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ServiceKey == "" {
		t.Error("expected ServiceKey to be assigned")
	}
	if created.Version != 0 {
		t.Errorf("Version: got %d, want 0", created.Version)
	}
	if created.Published {
		t.Error("new services must start unpublished")
	}
	if created.NameCI != "hvac maintenance" {
		t.Errorf("NameCI: got %q, want %q", created.NameCI, "hvac maintenance")
	}
}

func TestStore_UpdateNewVersion_IncrementsByOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := servicestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")
	v0 := fixtures.CreateService(ctx, company.ID, "Plumbing", false)

	v1, err := store.UpdateNewVersion(ctx, company.ID, v0.ServiceKey, owner.ID, servicestore.Patch{
		Published: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("UpdateNewVersion failed: %v", err)
	}
	if v1.Version != 1 {
		t.Errorf("Version: got %d, want 1", v1.Version)
	}
	if !v1.Published {
		t.Error("expected Published to flip to true")
	}
	if v1.Name != v0.Name {
		t.Errorf("Name not carried over: got %q, want %q", v1.Name, v0.Name)
	}

	// Prior version stays reachable and unpublished.
	old, err := store.GetByID(ctx, v0.ID)
	if err != nil {
		t.Fatalf("GetByID(v0) failed: %v", err)
	}
	if old.Published {
		t.Error("old version must be untouched")
	}
}

func TestStore_UpdateNewVersion_UnknownKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := servicestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	_, err := store.UpdateNewVersion(ctx, company.ID, "no-such-key", owner.ID, servicestore.Patch{
		Name: strPtr("anything"),
	})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected fault.ErrNotFound, got %v", err)
	}
}

func TestStore_LatestByKey_PublishedGate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := servicestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	hidden := fixtures.CreateService(ctx, company.ID, "Hidden", false)
	visible := fixtures.CreateService(ctx, company.ID, "Visible", true)

	if _, err := store.LatestByKey(ctx, hidden.ServiceKey, true); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("unpublished service should look absent to clients, got %v", err)
	}

	got, err := store.LatestByKey(ctx, visible.ServiceKey, true)
	if err != nil {
		t.Fatalf("LatestByKey failed: %v", err)
	}
	if got.ServiceKey != visible.ServiceKey {
		t.Errorf("ServiceKey: got %q, want %q", got.ServiceKey, visible.ServiceKey)
	}

	// The authoring path still sees unpublished services.
	if _, err := store.LatestByKey(ctx, hidden.ServiceKey, false); err != nil {
		t.Errorf("unfiltered lookup should find it, got %v", err)
	}
}

func TestStore_ListPublished_FiltersOnLatestVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := servicestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Services")
	owner := fixtures.CreateCompanyUser(ctx, company.ID, "owner@acme.test")

	// Published at v0, withdrawn at v1: must not appear in the catalog.
	withdrawn := fixtures.CreateService(ctx, company.ID, "Withdrawn", true)
	if _, err := store.UpdateNewVersion(ctx, company.ID, withdrawn.ServiceKey, owner.ID, servicestore.Patch{
		Published: boolPtr(false),
	}); err != nil {
		t.Fatalf("UpdateNewVersion failed: %v", err)
	}

	fixtures.CreateService(ctx, company.ID, "Live", true)

	list, err := store.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 published service, got %d", len(list))
	}
	if list[0].Name != "Live" {
		t.Errorf("Name: got %q, want %q", list[0].Name, "Live")
	}
}
