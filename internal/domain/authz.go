package domain

// CanModify reports whether the acting user may mutate or delete a record
// owned by ownerID. Ownership is the only capability: no roles, no
// delegation.
func CanModify(actorID, ownerID int64) bool {
	return actorID == ownerID
}
