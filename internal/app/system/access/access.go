// internal/app/system/access/access.go

// Package access answers fill/view permission questions for access-annotated
// form snapshots. The check runs at render time against the acting user;
// snapshot creation always keeps the full lists regardless of who triggers
// it.
package access

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
)

// CanFill reports whether a user with the given role and optional position
// may fill the form entry. A user qualifies through either axis: role in
// the fillable role list, or position id in the fillable position list.
// Empty lists admit nobody via that axis.
func CanFill(meta *models.AccessMeta, role string, positionID *primitive.ObjectID) bool {
	if meta == nil {
		return false
	}
	return matches(meta.FillableRoles, meta.FillablePositionIDs, role, positionID)
}

// CanView is CanFill's read-only counterpart, checked against the viewable
// lists.
func CanView(meta *models.AccessMeta, role string, positionID *primitive.ObjectID) bool {
	if meta == nil {
		return false
	}
	return matches(meta.ViewableRoles, meta.ViewablePositionIDs, role, positionID)
}

func matches(roles []string, positionIDs []primitive.ObjectID, role string, positionID *primitive.ObjectID) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	if positionID == nil {
		return false
	}
	for _, id := range positionIDs {
		if id == *positionID {
			return true
		}
	}
	return false
}
