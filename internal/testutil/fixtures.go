// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"fmt"
	"testing"

	companystore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/companies"
	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	positionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/positions"
	servicestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/services"
	userstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/users"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fixtures creates prerequisite documents through the real stores, so
// fixtures carry the same normalized fields production writes do.
type Fixtures struct {
	t *testing.T

	companies *companystore.Store
	users     *userstore.Store
	positions *positionstore.Store
	templates *templatestore.Store
	services  *servicestore.Store
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{
		t:         t,
		companies: companystore.New(db),
		users:     userstore.New(db, zap.NewNop()),
		positions: positionstore.New(db),
		templates: templatestore.New(db),
		services:  servicestore.New(db),
	}
}

func (f *Fixtures) CreateCompany(ctx context.Context, name string) models.Company {
	f.t.Helper()
	co, err := f.companies.Create(ctx, models.Company{Name: name})
	if err != nil {
		f.t.Fatalf("fixture company %q: %v", name, err)
	}
	return co
}

func (f *Fixtures) createUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()
	hash, err := userstore.HashPassword("fixture-password")
	if err != nil {
		f.t.Fatalf("fixture password hash: %v", err)
	}
	u.PasswordHash = hash
	if u.FullName == "" {
		u.FullName = "Fixture User"
	}
	created, err := f.users.Create(ctx, u)
	if err != nil {
		f.t.Fatalf("fixture user %q: %v", u.Email, err)
	}
	return created
}

// CreateCompanyUser creates a company-role operator for the company.
func (f *Fixtures) CreateCompanyUser(ctx context.Context, companyID primitive.ObjectID, email string) models.User {
	return f.createUser(ctx, models.User{
		Email:     email,
		Role:      models.RoleCompany,
		CompanyID: &companyID,
	})
}

// CreateStaff creates a staff member, optionally holding a position.
func (f *Fixtures) CreateStaff(ctx context.Context, companyID primitive.ObjectID, email string, positionID *primitive.ObjectID) models.User {
	return f.createUser(ctx, models.User{
		Email:      email,
		Role:       models.RoleStaff,
		CompanyID:  &companyID,
		PositionID: positionID,
	})
}

// CreateClient creates a client user not attached to any company.
func (f *Fixtures) CreateClient(ctx context.Context, email string) models.User {
	return f.createUser(ctx, models.User{
		Email: email,
		Role:  models.RoleClient,
	})
}

func (f *Fixtures) CreatePosition(ctx context.Context, companyID primitive.ObjectID, name string) models.Position {
	f.t.Helper()
	p, err := f.positions.Create(ctx, models.Position{CompanyID: companyID, Name: name})
	if err != nil {
		f.t.Fatalf("fixture position %q: %v", name, err)
	}
	return p
}

// CreateTemplate creates version 0 of a template with numFields text
// fields ordered 1..numFields.
func (f *Fixtures) CreateTemplate(ctx context.Context, companyID primitive.ObjectID, title string, numFields int) models.FormTemplate {
	f.t.Helper()
	fields := make([]models.FormField, 0, numFields)
	for i := 1; i <= numFields; i++ {
		fields = append(fields, models.FormField{
			Order: i,
			Label: fmt.Sprintf("Field %d", i),
			Type:  models.FieldText,
		})
	}
	tmpl, err := f.templates.Create(ctx, models.FormTemplate{
		CompanyID: companyID,
		Title:     title,
		Type:      "general",
		Fields:    fields,
		CreatedBy: primitive.NewObjectID(),
	})
	if err != nil {
		f.t.Fatalf("fixture template %q: %v", title, err)
	}
	return tmpl
}

// CreateService creates version 0 of a service with no form refs.
func (f *Fixtures) CreateService(ctx context.Context, companyID primitive.ObjectID, name string, published bool) models.Service {
	f.t.Helper()
	svc, err := f.services.Create(ctx, models.Service{
		CompanyID: companyID,
		Name:      name,
		Published: published,
		CreatedBy: primitive.NewObjectID(),
	})
	if err != nil {
		f.t.Fatalf("fixture service %q: %v", name, err)
	}
	return svc
}

// ServiceWithForms builds a full service fixture: intake, work-order, and
// report form refs pointing at freshly created templates, with the given
// access on the work-order and report entries.
func (f *Fixtures) ServiceWithForms(ctx context.Context, companyID primitive.ObjectID, name string, access *models.AccessMeta) (models.Service, []models.FormTemplate) {
	f.t.Helper()
	intake := f.CreateTemplate(ctx, companyID, name+" Intake", 2)
	work := f.CreateTemplate(ctx, companyID, name+" Work Form", 2)
	report := f.CreateTemplate(ctx, companyID, name+" Report Form", 2)

	svc, err := f.services.Create(ctx, models.Service{
		CompanyID: companyID,
		Name:      name,
		Published: true,
		ClientIntakeForms: []models.ServiceFormRef{
			{Order: 1, FormKey: intake.FormKey},
		},
		WorkOrderForms: []models.ServiceFormRef{
			{Order: 1, FormKey: work.FormKey, Access: access},
		},
		ReportForms: []models.ServiceFormRef{
			{Order: 1, FormKey: report.FormKey, Access: access},
		},
		CreatedBy: primitive.NewObjectID(),
	})
	if err != nil {
		f.t.Fatalf("fixture service %q: %v", name, err)
	}
	return svc, []models.FormTemplate{intake, work, report}
}
