package post

import (
	"encoding/json"
	"strings"

	"github.com/students-gateway/gateway/core"
)

// Field is a JSON value whose presence is tracked separately from its nullness:
// a key set to null yields Set == true and Value == nil.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Set returns a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a present field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

// NewPost contains information needed to create a new Post.
// Every key must be present; location & date_due may be null.
type NewPost struct {
	Title                   Field[string] `json:"title"`
	Body                    Field[string] `json:"body"`
	GroupID                 Field[string] `json:"group_id"`
	Location                Field[string] `json:"location"`
	RequiresAcknowledgement Field[bool]   `json:"requires_acknowledgement"`
	DateDue                 Field[int64]  `json:"date_due"` // epoch seconds
}

// MissingFields returns the absent keys, in declaration order.
// A null title, body, group_id or requires_acknowledgement counts as absent.
func (np NewPost) MissingFields() []string {
	var missing []string
	if np.Title.Value == nil {
		missing = append(missing, "title")
	}
	if np.Body.Value == nil {
		missing = append(missing, "body")
	}
	if np.GroupID.Value == nil {
		missing = append(missing, "group_id")
	}
	if !np.Location.Set {
		missing = append(missing, "location")
	}
	if np.RequiresAcknowledgement.Value == nil {
		missing = append(missing, "requires_acknowledgement")
	}
	if !np.DateDue.Set {
		missing = append(missing, "date_due")
	}
	return missing
}

func (np *NewPost) Clean() {
	if np.Title.Value != nil {
		*np.Title.Value = core.CleanString(*np.Title.Value)
	}
	if np.Body.Value != nil {
		*np.Body.Value = strings.TrimSpace(*np.Body.Value)
	}
	if np.GroupID.Value != nil {
		*np.GroupID.Value = core.CleanString(*np.GroupID.Value)
	}
	if np.Location.Value != nil {
		*np.Location.Value = core.CleanString(*np.Location.Value)
	}
}

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing keys: " + strings.Join(e.Fields, ", ")
}

// Patch defines the fields of a Post which may be replaced.
// Unset fields are left untouched; location & date_due may be set to null to clear them.
type Patch struct {
	Title                   *string       `json:"title" validate:"omitempty,notblank"`
	Body                    *string       `json:"body" validate:"omitempty,notblank"`
	GroupID                 *string       `json:"group_id" validate:"omitempty,notblank"`
	Location                Field[string] `json:"location"`
	RequiresAcknowledgement *bool         `json:"requires_acknowledgement"`
	DateDue                 Field[int64]  `json:"date_due"`
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Body == nil && p.GroupID == nil && !p.Location.Set &&
		p.RequiresAcknowledgement == nil && !p.DateDue.Set
}

// Apply replaces the patch's set fields on pst.
func (p Patch) Apply(pst *Post) {
	if p.Title != nil {
		pst.Title = *p.Title
	}
	if p.Body != nil {
		pst.Body = *p.Body
	}
	if p.GroupID != nil {
		pst.GroupID = *p.GroupID
	}
	if p.Location.Set {
		pst.Location = p.Location.Value
	}
	if p.RequiresAcknowledgement != nil {
		pst.RequiresAcknowledgement = *p.RequiresAcknowledgement
	}
	if p.DateDue.Set {
		pst.DateDue = p.DateDue.Value
	}
}
