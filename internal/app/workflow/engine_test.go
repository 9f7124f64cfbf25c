package workflow_test

import (
	"context"
	"errors"
	"testing"

	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	requeststore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/requests"
	servicestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/services"
	submissionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/submissions"
	orderstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workorders"
	reportstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workreports"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/snapshot"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/workflow"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	"github.com/NandaFebian/workorder-portal-sub000/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type testEnv struct {
	engine      *workflow.Engine
	requests    *requeststore.Store
	services    *servicestore.Store
	templates   *templatestore.Store
	orders      *orderstore.Store
	reports     *reportstore.Store
	submissions *submissionstore.Store
	fixtures    *testutil.Fixtures
}

func newTestEnv(t *testing.T, db *mongo.Database) *testEnv {
	t.Helper()
	log := zap.NewNop()
	templates := templatestore.New(db)
	requests := requeststore.New(db)
	services := servicestore.New(db)
	orders := orderstore.New(db)
	reports := reportstore.New(db)
	submissions := submissionstore.New(db, templates)
	return &testEnv{
		engine:      workflow.New(db.Client(), requests, services, templates, orders, reports, submissions, log),
		requests:    requests,
		services:    services,
		templates:   templates,
		orders:      orders,
		reports:     reports,
		submissions: submissions,
		fixtures:    testutil.NewFixtures(t, db),
	}
}

// createRequest files a received request against the latest version of the
// service, with intake snapshots built the same way the request endpoint
// builds them.
func (env *testEnv) createRequest(t *testing.T, ctx context.Context, svc models.Service, clientID primitive.ObjectID) models.ServiceRequest {
	t.Helper()
	intake := snapshot.BuildIntake(ctx, env.templates, svc.ClientIntakeForms, zap.NewNop())
	req, err := env.requests.Create(ctx, models.ServiceRequest{
		CompanyID:   svc.CompanyID,
		ServiceID:   svc.ID,
		ClientID:    clientID,
		IntakeForms: intake,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func TestEngine_Approve_DerivesOrderAndReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newTestEnv(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := env.fixtures.CreateCompany(ctx, "Acme Services")
	operator := env.fixtures.CreateCompanyUser(ctx, company.ID, "op@acme.test")
	client := env.fixtures.CreateClient(ctx, "client@test.test")
	access := &models.AccessMeta{
		FillableRoles: []string{models.RoleStaff},
		ViewableRoles: []string{models.RoleStaff, models.RoleCompany},
	}
	svc, tmpls := env.fixtures.ServiceWithForms(ctx, company.ID, "HVAC", access)

	req := env.createRequest(t, ctx, svc, client.ID)

	res, err := env.engine.Approve(ctx, req.ID, operator.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if res.Request.Status != models.RequestApproved {
		t.Errorf("request status: got %q, want %q", res.Request.Status, models.RequestApproved)
	}
	if res.Request.DecidedBy == nil || *res.Request.DecidedBy != operator.ID {
		t.Error("expected DecidedBy to record the operator")
	}

	if res.WorkOrder.Status != models.OrderDrafted {
		t.Errorf("order status: got %q, want %q", res.WorkOrder.Status, models.OrderDrafted)
	}
	if res.WorkOrder.Priority != models.PriorityMedium {
		t.Errorf("order priority: got %q, want %q", res.WorkOrder.Priority, models.PriorityMedium)
	}
	if res.WorkOrder.RequestID != req.ID {
		t.Error("work order not linked to the request")
	}
	if len(res.WorkOrder.WorkOrderForms) != len(svc.WorkOrderForms) {
		t.Errorf("work order forms: got %d, want %d", len(res.WorkOrder.WorkOrderForms), len(svc.WorkOrderForms))
	}

	if res.Report.WorkOrderID != res.WorkOrder.ID {
		t.Error("report not linked to the work order")
	}
	if res.Report.Status != models.ReportInProgress {
		t.Errorf("report status: got %q, want %q", res.Report.Status, models.ReportInProgress)
	}
	if len(res.Report.ReportForms) != len(svc.ReportForms) {
		t.Errorf("report forms: got %d, want %d", len(res.Report.ReportForms), len(svc.ReportForms))
	}

	// Snapshot shape matches the template and the access lists arrived
	// verbatim.
	woSnap := res.WorkOrder.WorkOrderForms[0]
	workTmpl := tmpls[1]
	if woSnap.Form.FormID != workTmpl.ID {
		t.Error("snapshot must reference the exact template version")
	}
	if woSnap.Form.Title != workTmpl.Title {
		t.Errorf("snapshot title: got %q, want %q", woSnap.Form.Title, workTmpl.Title)
	}
	if woSnap.Access == nil || len(woSnap.Access.FillableRoles) != 1 || woSnap.Access.FillableRoles[0] != models.RoleStaff {
		t.Errorf("snapshot access not copied: %+v", woSnap.Access)
	}
}

func TestEngine_Approve_SecondApprovalConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newTestEnv(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := env.fixtures.CreateCompany(ctx, "Acme Services")
	operator := env.fixtures.CreateCompanyUser(ctx, company.ID, "op@acme.test")
	client := env.fixtures.CreateClient(ctx, "client@test.test")
	svc, _ := env.fixtures.ServiceWithForms(ctx, company.ID, "HVAC", nil)

	req := env.createRequest(t, ctx, svc, client.ID)

	if _, err := env.engine.Approve(ctx, req.ID, operator.ID); err != nil {
		t.Fatalf("first Approve failed: %v", err)
	}
	if _, err := env.engine.Approve(ctx, req.ID, operator.ID); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("second Approve: expected fault.ErrConflict, got %v", err)
	}

	// Exactly one work order came out of the double approval.
	orders, err := env.orders.ListByCompany(ctx, company.ID, "")
	if err != nil {
		t.Fatalf("ListByCompany failed: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected exactly 1 work order, got %d", len(orders))
	}
}

func TestEngine_Approve_UnknownRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newTestEnv(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := env.engine.Approve(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected fault.ErrNotFound, got %v", err)
	}
}

func TestEngine_Approve_UsesRequestedServiceVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newTestEnv(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := env.fixtures.CreateCompany(ctx, "Acme Services")
	operator := env.fixtures.CreateCompanyUser(ctx, company.ID, "op@acme.test")
	client := env.fixtures.CreateClient(ctx, "client@test.test")
	svc, _ := env.fixtures.ServiceWithForms(ctx, company.ID, "HVAC", nil)

	req := env.createRequest(t, ctx, svc, client.ID)

	// The service evolves after the request was filed: the new version
	// drops all work-order forms.
	empty := []models.ServiceFormRef{}
	if _, err := env.services.UpdateNewVersion(ctx, company.ID, svc.ServiceKey, operator.ID, servicestore.Patch{
		WorkOrderForms: &empty,
	}); err != nil {
		t.Fatalf("UpdateNewVersion failed: %v", err)
	}

	res, err := env.engine.Approve(ctx, req.ID, operator.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	// The order is derived from the version referenced at request time.
	if len(res.WorkOrder.WorkOrderForms) != 1 {
		t.Errorf("expected 1 work order form from the requested version, got %d", len(res.WorkOrder.WorkOrderForms))
	}
}

func TestEngine_Reject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newTestEnv(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := env.fixtures.CreateCompany(ctx, "Acme Services")
	operator := env.fixtures.CreateCompanyUser(ctx, company.ID, "op@acme.test")
	client := env.fixtures.CreateClient(ctx, "client@test.test")
	svc, _ := env.fixtures.ServiceWithForms(ctx, company.ID, "HVAC", nil)

	req := env.createRequest(t, ctx, svc, client.ID)

	decided, err := env.engine.Reject(ctx, req.ID, operator.ID)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if decided.Status != models.RequestRejected {
		t.Errorf("status: got %q, want %q", decided.Status, models.RequestRejected)
	}

	// Rejection derives nothing.
	orders, err := env.orders.ListByCompany(ctx, company.ID, "")
	if err != nil {
		t.Fatalf("ListByCompany failed: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected no work orders, got %d", len(orders))
	}

	// And a rejected request cannot be approved afterwards.
	if _, err := env.engine.Approve(ctx, req.ID, operator.ID); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("approve after reject: expected fault.ErrConflict, got %v", err)
	}
}

func TestEngine_MarkReady_RequiresSubmissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newTestEnv(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := env.fixtures.CreateCompany(ctx, "Acme Services")
	operator := env.fixtures.CreateCompanyUser(ctx, company.ID, "op@acme.test")
	staff := env.fixtures.CreateStaff(ctx, company.ID, "staff@acme.test", nil)
	client := env.fixtures.CreateClient(ctx, "client@test.test")
	svc, _ := env.fixtures.ServiceWithForms(ctx, company.ID, "HVAC", nil)

	req := env.createRequest(t, ctx, svc, client.ID)
	res, err := env.engine.Approve(ctx, req.ID, operator.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	orderID := res.WorkOrder.ID

	// No submissions yet: the transition must refuse.
	if err := env.engine.MarkReady(ctx, orderID); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("expected fault.ErrConflict without submissions, got %v", err)
	}

	// Fill every work-order form once.
	for _, snap := range res.WorkOrder.WorkOrderForms {
		if _, err := env.submissions.Submit(ctx, models.FormSubmission{
			OwnerID:        orderID,
			SubmissionType: models.SubmissionWorkOrder,
			FormID:         snap.Form.FormID,
			SubmittedBy:    staff.ID,
			FieldsData:     []models.FieldAnswer{{Order: 1, Value: "done"}},
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	if err := env.engine.MarkReady(ctx, orderID); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}

	wo, err := env.orders.GetByID(ctx, orderID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if wo.Status != models.OrderReady {
		t.Errorf("status: got %q, want %q", wo.Status, models.OrderReady)
	}
}

func TestEngine_StatusTransitions_EnforceOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	env := newTestEnv(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := env.fixtures.CreateCompany(ctx, "Acme Services")
	operator := env.fixtures.CreateCompanyUser(ctx, company.ID, "op@acme.test")
	staff := env.fixtures.CreateStaff(ctx, company.ID, "staff@acme.test", nil)
	client := env.fixtures.CreateClient(ctx, "client@test.test")
	svc, _ := env.fixtures.ServiceWithForms(ctx, company.ID, "HVAC", nil)

	req := env.createRequest(t, ctx, svc, client.ID)
	res, err := env.engine.Approve(ctx, req.ID, operator.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	orderID := res.WorkOrder.ID

	// Cannot start or complete a drafted order.
	if err := env.engine.Start(ctx, orderID); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("Start on drafted: expected fault.ErrConflict, got %v", err)
	}
	if err := env.engine.Complete(ctx, orderID); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("Complete on drafted: expected fault.ErrConflict, got %v", err)
	}

	for _, snap := range res.WorkOrder.WorkOrderForms {
		if _, err := env.submissions.Submit(ctx, models.FormSubmission{
			OwnerID:        orderID,
			SubmissionType: models.SubmissionWorkOrder,
			FormID:         snap.Form.FormID,
			SubmittedBy:    staff.ID,
			FieldsData:     []models.FieldAnswer{{Order: 1, Value: "x"}},
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	if err := env.engine.MarkReady(ctx, orderID); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if err := env.engine.Start(ctx, orderID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Starting again must conflict, and no second report may appear.
	if err := env.engine.Start(ctx, orderID); !errors.Is(err, fault.ErrConflict) {
		t.Errorf("second Start: expected fault.ErrConflict, got %v", err)
	}
	if _, err := env.reports.GetByWorkOrder(ctx, orderID); err != nil {
		t.Errorf("expected the single report to exist: %v", err)
	}

	if err := env.engine.Complete(ctx, orderID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	wo, err := env.orders.GetByID(ctx, orderID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if wo.Status != models.OrderCompleted {
		t.Errorf("status: got %q, want %q", wo.Status, models.OrderCompleted)
	}
}
