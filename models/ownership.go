package models

// Owned is content attributed to exactly one user at creation time.
type Owned interface {
	OwnerID() uint
}

// CanModify reports whether viewerID may edit or delete target.
// Anonymous viewers are represented by 0 and never match an owner.
func CanModify(target Owned, viewerID uint) bool {
	return viewerID != 0 && target != nil && target.OwnerID() == viewerID
}
