// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group privacy levels.
//
//   - public: anyone may view and join directly
//   - private: visible in listings; joining queues a pending request
//   - secret: hidden from listings; invisible to non-members
const (
	GroupPublic  = "public"
	GroupPrivate = "private"
	GroupSecret  = "secret"
)

// Membership roles, lowest to highest. The creator always holds the
// admin role and cannot leave without transferring ownership.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// IsValidGroupPrivacy checks a privacy value from client input.
func IsValidGroupPrivacy(p string) bool {
	switch p {
	case GroupPublic, GroupPrivate, GroupSecret:
		return true
	}
	return false
}

// roleRank orders roles for permission checks.
var roleRank = map[string]int{
	RoleMember:    1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// RoleAtLeast reports whether role carries at least the permissions of min.
func RoleAtLeast(role, min string) bool {
	return roleRank[role] >= roleRank[min]
}

// GroupMember links a user to a group with a role.
type GroupMember struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	Role     string             `bson:"role" json:"role"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

// JoinRequest is a queued request to join a private group.
type JoinRequest struct {
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	RequestedAt time.Time          `bson:"requested_at" json:"requestedAt"`
}

// GroupSettings holds admin-tunable behavior.
type GroupSettings struct {
	AllowMemberPosts bool `bson:"allow_member_posts" json:"allowMemberPosts"`
}

// Group is a community container. Members and pending requests are
// embedded; the store keeps them duplicate-free.
type Group struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Privacy     string             `bson:"privacy" json:"privacy"`
	CreatorID   primitive.ObjectID `bson:"creator_id" json:"creatorId"`

	Members         []GroupMember `bson:"members" json:"-"`
	PendingRequests []JoinRequest `bson:"pending_requests,omitempty" json:"-"`
	Settings        GroupSettings `bson:"settings" json:"settings"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// MemberRole returns the role of userID, or "" when not a member.
func (g *Group) MemberRole(userID primitive.ObjectID) string {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// IsMember reports whether userID belongs to the group.
func (g *Group) IsMember(userID primitive.ObjectID) bool {
	return g.MemberRole(userID) != ""
}

// HasPendingRequest reports whether userID has a queued join request.
func (g *Group) HasPendingRequest(userID primitive.ObjectID) bool {
	for _, r := range g.PendingRequests {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// CanPost reports whether userID may publish into the group's channel.
// Moderators and admins always can; plain members only when the
// allow_member_posts setting is on.
func (g *Group) CanPost(userID primitive.ObjectID) bool {
	role := g.MemberRole(userID)
	if role == "" {
		return false
	}
	if RoleAtLeast(role, RoleModerator) {
		return true
	}
	return g.Settings.AllowMemberPosts
}

// CanModerate reports whether userID holds moderator-or-above permissions.
func (g *Group) CanModerate(userID primitive.ObjectID) bool {
	return RoleAtLeast(g.MemberRole(userID), RoleModerator)
}

// IsAdmin reports whether userID holds the admin role.
func (g *Group) IsAdmin(userID primitive.ObjectID) bool {
	return RoleAtLeast(g.MemberRole(userID), RoleAdmin)
}

// VisibleTo reports whether viewer may see the group exists at all.
// Secret groups are invisible to non-members.
func (g *Group) VisibleTo(userID primitive.ObjectID) bool {
	if g.Privacy != GroupSecret {
		return true
	}
	return g.IsMember(userID)
}
