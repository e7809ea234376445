// internal/domain/models/idset.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// IDSet is a set of user/document references stored as a plain BSON array.
//
// Membership invariants (no duplicate follower, no double like) are enforced
// at the storage layer with $addToSet/$pull; IDSet gives call sites one place
// for "is member / is liked by" checks instead of ad-hoc loops.
type IDSet []primitive.ObjectID

// Has reports whether id is in the set.
func (s IDSet) Has(id primitive.ObjectID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id if not already present and reports whether it was added.
func (s *IDSet) Add(id primitive.ObjectID) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id if present and reports whether it was removed.
func (s *IDSet) Remove(id primitive.ObjectID) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle adds id when absent and removes it when present.
// It reports true when the id ended up in the set.
func (s *IDSet) Toggle(id primitive.ObjectID) bool {
	if s.Remove(id) {
		return false
	}
	*s = append(*s, id)
	return true
}
