// internal/app/workflow/engine.go

// Package workflow implements the approval pipeline: deciding a service
// request and, on approval, deriving the paired work order and work report
// from the exact service version the request referenced.
package workflow

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	templatestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/formtemplates"
	requeststore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/requests"
	servicestore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/services"
	submissionstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/submissions"
	orderstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workorders"
	reportstore "github.com/NandaFebian/workorder-portal-sub000/internal/app/store/workreports"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/snapshot"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/txn"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

type Engine struct {
	client      *mongo.Client
	requests    *requeststore.Store
	services    *servicestore.Store
	templates   *templatestore.Store
	orders      *orderstore.Store
	reports     *reportstore.Store
	submissions *submissionstore.Store
	log         *zap.Logger
}

func New(
	client *mongo.Client,
	requests *requeststore.Store,
	services *servicestore.Store,
	templates *templatestore.Store,
	orders *orderstore.Store,
	reports *reportstore.Store,
	submissions *submissionstore.Store,
	log *zap.Logger,
) *Engine {
	return &Engine{
		client:      client,
		requests:    requests,
		services:    services,
		templates:   templates,
		orders:      orders,
		reports:     reports,
		submissions: submissions,
		log:         log,
	}
}

// ApprovalResult bundles everything an approval produces.
type ApprovalResult struct {
	Request   models.ServiceRequest `json:"request"`
	WorkOrder models.WorkOrder      `json:"work_order"`
	Report    models.WorkReport     `json:"work_report"`
}

// Approve decides a received request and derives its work order and work
// report.
//
// The status flip is a compare-and-set on "received", so a second approval
// (or an approval racing a rejection) fails with fault.ErrConflict and
// creates nothing. The derived documents are created transactionally; on
// standalone servers without transaction support the engine falls back to
// sequential writes with compensation that reverts the request and removes
// whatever was created.
func (e *Engine) Approve(ctx context.Context, requestID, decidedBy primitive.ObjectID) (ApprovalResult, error) {
	req, err := e.requests.GetByID(ctx, requestID)
	if err != nil {
		return ApprovalResult{}, err
	}

	if err := e.requests.UpdateStatusIf(ctx, requestID, models.RequestReceived, models.RequestApproved, decidedBy); err != nil {
		return ApprovalResult{}, err
	}

	// Any failure past this point must put the request back to received.
	revert := func() {
		if err := e.requests.RevertStatus(context.WithoutCancel(ctx), requestID); err != nil {
			e.log.Error("failed to revert request status after approval failure",
				zap.String("request_id", requestID.Hex()), zap.Error(err))
		}
	}

	// Resolve the exact service version the request was made against, not
	// whatever is latest now.
	svc, err := e.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		revert()
		return ApprovalResult{}, fmt.Errorf("resolve service version: %w", err)
	}

	woForms := snapshot.BuildWithAccess(ctx, e.templates, svc.WorkOrderForms, e.log)
	repForms := snapshot.BuildWithAccess(ctx, e.templates, svc.ReportForms, e.log)

	var (
		wo  models.WorkOrder
		rep models.WorkReport
	)
	err = txn.Run(ctx, e.client, e.log,
		func(ctx context.Context) error {
			var err error
			wo, err = e.orders.Create(ctx, models.WorkOrder{
				CompanyID:      req.CompanyID,
				RequestID:      req.ID,
				ServiceID:      req.ServiceID,
				ClientID:       req.ClientID,
				WorkOrderForms: woForms,
				CreatedBy:      decidedBy,
			})
			if err != nil {
				return fmt.Errorf("create work order: %w", err)
			}
			rep, err = e.reports.Create(ctx, models.WorkReport{
				CompanyID:   req.CompanyID,
				WorkOrderID: wo.ID,
				ReportForms: repForms,
			})
			if err != nil {
				return fmt.Errorf("create work report: %w", err)
			}
			return nil
		},
		func(ctx context.Context) {
			if wo.ID != primitive.NilObjectID {
				if err := e.reports.DeleteByWorkOrder(ctx, wo.ID); err != nil {
					e.log.Error("compensation: delete work report", zap.Error(err))
				}
				if err := e.orders.Delete(ctx, wo.ID); err != nil {
					e.log.Error("compensation: delete work order", zap.Error(err))
				}
			}
		})
	if err != nil {
		revert()
		return ApprovalResult{}, err
	}

	decided, err := e.requests.GetByID(ctx, requestID)
	if err != nil {
		// The approval itself succeeded; return what we know.
		decided = req
		decided.Status = models.RequestApproved
	}

	e.log.Info("service request approved",
		zap.String("request_id", requestID.Hex()),
		zap.String("work_order_id", wo.ID.Hex()),
		zap.String("work_report_id", rep.ID.Hex()),
		zap.Int("work_order_forms", len(wo.WorkOrderForms)),
		zap.Int("report_forms", len(rep.ReportForms)))

	return ApprovalResult{Request: decided, WorkOrder: wo, Report: rep}, nil
}

// Reject decides a received request negatively. Same compare-and-set rules
// as Approve; nothing is derived.
func (e *Engine) Reject(ctx context.Context, requestID, decidedBy primitive.ObjectID) (models.ServiceRequest, error) {
	if err := e.requests.UpdateStatusIf(ctx, requestID, models.RequestReceived, models.RequestRejected, decidedBy); err != nil {
		return models.ServiceRequest{}, err
	}
	return e.requests.GetByID(ctx, requestID)
}

// MarkReady moves a drafted work order to ready. Every form in the order's
// snapshot list must have at least one submission; otherwise the
// transition fails with fault.ErrConflict naming the first missing form.
func (e *Engine) MarkReady(ctx context.Context, orderID primitive.ObjectID) error {
	wo, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	submitted, err := e.submissions.SubmittedFormIDs(ctx, orderID, models.SubmissionWorkOrder)
	if err != nil {
		return err
	}
	for _, snap := range wo.WorkOrderForms {
		if _, ok := submitted[snap.Form.FormID]; !ok {
			return fmt.Errorf("form %q has no submission: %w", snap.Form.Title, fault.ErrConflict)
		}
	}

	return e.orders.UpdateStatusIf(ctx, orderID, models.OrderDrafted, models.OrderReady)
}

// Start moves a ready work order to in_progress. The paired report already
// exists from approval time, so this is a pure status transition.
func (e *Engine) Start(ctx context.Context, orderID primitive.ObjectID) error {
	return e.orders.UpdateStatusIf(ctx, orderID, models.OrderReady, models.OrderInProgress)
}

// Complete moves an in_progress work order to completed.
func (e *Engine) Complete(ctx context.Context, orderID primitive.ObjectID) error {
	return e.orders.UpdateStatusIf(ctx, orderID, models.OrderInProgress, models.OrderCompleted)
}
