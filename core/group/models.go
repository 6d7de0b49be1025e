package group

import "github.com/students-gateway/gateway/core"

// Group is a named set of owners & members controlling post visibility.
// Owners and members are usernames; they are not checked against existing users.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Owners  []string `json:"owners"`
	Members []string `json:"members"` // order is kept
}

// HasUser reports whether username is one of the group's owners or members.
func (g Group) HasUser(username string) bool {
	for _, o := range g.Owners {
		if o == username {
			return true
		}
	}
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}

// IsOwner reports whether username owns the group.
func (g Group) IsOwner(username string) bool {
	for _, o := range g.Owners {
		if o == username {
			return true
		}
	}
	return false
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name    string   `json:"name" validate:"required,notblank"`
	Owners  []string `json:"owners" validate:"required,min=1,dive,username"`
	Members []string `json:"members" validate:"dive,username"`
}

func (ng *NewGroup) Clean() {
	ng.Name = core.CleanString(ng.Name)
	ng.Owners = core.CleanStrings(ng.Owners, true /* lower */)
	ng.Members = core.CleanStrings(ng.Members, true /* lower */)
}

// Patch defines the fields of a Group which may be replaced; nil fields are left untouched.
type Patch struct {
	Name    *string  `json:"name" validate:"omitempty,notblank"`
	Owners  []string `json:"owners" validate:"omitempty,min=1,dive,username"`
	Members []string `json:"members" validate:"omitempty,dive,username"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Owners == nil && p.Members == nil
}

// DropsOwners reports whether the patch replaces the owners with none.
func (p Patch) DropsOwners() bool {
	return p.Owners != nil && len(core.CleanStrings(p.Owners)) == 0
}

// Suggestion is a group projected for incremental-search UIs.
type Suggestion struct {
	Label string `json:"label"` // group name
	Value string `json:"value"` // group ID
}

// QueryFilter applies AND operation on its set fields.
type QueryFilter struct {
	IDs    []string // groups with any of these IDs
	Owner  string   // groups owned by Owner
	User   string   // groups where User is an owner or a member
	Search string   // full-text search over group names
}
