// internal/app/system/snapshot/snapshot.go

// Package snapshot freezes form template shapes into downstream documents.
// A snapshot is built at the moment a request, work order, or work report
// first references a service's form list; after that the embedded copy is
// never touched again, so later template edits cannot reinterpret
// historical documents.
package snapshot

import (
	"context"

	"go.uber.org/zap"

	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// TemplateResolver resolves a form key to its current latest template
// version. Satisfied by the form template store.
type TemplateResolver interface {
	LatestByKey(ctx context.Context, formKey string) (models.FormTemplate, error)
}

// BuildIntake snapshots client-intake form references. Intake snapshots
// carry only the descriptive shape; access metadata is deliberately
// excluded because intake fields are fetched live by form id when the
// request is rendered.
//
// References that no longer resolve are logged and dropped; the caller
// must tolerate a shorter-than-expected list. Surviving entries keep their
// original order values and relative ordering.
func BuildIntake(ctx context.Context, res TemplateResolver, refs []models.ServiceFormRef, log *zap.Logger) []models.FormSnapshot {
	return build(ctx, res, refs, false, log)
}

// BuildWithAccess snapshots work-order or report form references,
// copying each entry's fillable/viewable role and position lists verbatim.
// The lists are copied, not re-derived, so the snapshot reflects the
// service entry exactly as it stood.
func BuildWithAccess(ctx context.Context, res TemplateResolver, refs []models.ServiceFormRef, log *zap.Logger) []models.FormSnapshot {
	return build(ctx, res, refs, true, log)
}

func build(ctx context.Context, res TemplateResolver, refs []models.ServiceFormRef, withAccess bool, log *zap.Logger) []models.FormSnapshot {
	out := make([]models.FormSnapshot, 0, len(refs))
	for _, ref := range refs {
		tpl, err := res.LatestByKey(ctx, ref.FormKey)
		if err != nil {
			log.Warn("dropping unresolvable form reference from snapshot",
				zap.String("form_key", ref.FormKey),
				zap.Int("order", ref.Order),
				zap.Error(err))
			continue
		}

		entry := models.FormSnapshot{
			Order: ref.Order,
			Form: models.FormShape{
				FormID:      tpl.ID,
				Title:       tpl.Title,
				Description: tpl.Description,
				Type:        tpl.Type,
			},
		}
		if withAccess && ref.Access != nil {
			meta := *ref.Access
			entry.Access = &meta
		}
		out = append(out, entry)
	}
	return out
}
