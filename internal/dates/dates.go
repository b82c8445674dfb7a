// Package dates finds the MFG and EXP dates in uppercased label text
package dates

// Unparseable marks a date-shaped value no format accepts, distinct from a missing role
const Unparseable = "Parsing failed"

// CanonicalLayout is the output layout of every parsed date
const CanonicalLayout = "2006-01-02"

// Role names
const (
	RoleMFG = "MFG"
	RoleEXP = "EXP"
)

// Roles maps a role name to a canonical date or Unparseable
type Roles map[string]string

// MFG returns the manufacturing date
func (r Roles) MFG() (string, bool) {
	v, ok := r[RoleMFG]
	return v, ok
}

// EXP returns the expiry date
func (r Roles) EXP() (string, bool) {
	v, ok := r[RoleEXP]
	return v, ok
}

// Candidate is a date-shaped substring and its byte offsets
type Candidate struct {
	Text  string
	Start int
	End   int
}
