// Package policy decides what a user may do with a project based on
// role and ownership/assignment relations. It is pure: callers supply
// the facts, no storage is consulted here.
package policy

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleSupervisor Role = "Supervisor"
	RoleAnalyst    Role = "Analyst"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleAnalyst:
		return true
	}
	return false
}

// Project field names as recorded in the change log.
const (
	FieldGSFCode        = "gsf_code"
	FieldInvgateCode    = "invgate_code"
	FieldName           = "name"
	FieldPriority       = "priority"
	FieldEstimatedHours = "estimated_hours"
	FieldStartDate      = "start_date"
	FieldEndDate        = "end_date"
	FieldStatus         = "status"
	FieldProgress       = "progress"
	FieldTestCases      = "test_cases"
	FieldExecutedCases  = "executed_cases"
	FieldObservation    = "observation"
)

// FieldSet is a set of project field names. A nil FieldSet allows every field.
type FieldSet map[string]struct{}

// Allows reports whether the field may be touched under this set.
func (s FieldSet) Allows(field string) bool {
	if s == nil {
		return true
	}
	_, ok := s[field]
	return ok
}

// ProgressFields is the subset an assigned analyst may update.
var ProgressFields = FieldSet{
	FieldProgress:      {},
	FieldStatus:        {},
	FieldTestCases:     {},
	FieldExecutedCases: {},
	FieldObservation:   {},
}

// ProjectFacts carries the project state access decisions depend on.
type ProjectFacts struct {
	OwnerID    uint64
	AnalystIDs []uint64
}

func (f ProjectFacts) assigned(userID uint64) bool {
	for _, id := range f.AnalystIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Policy is implemented once per role. A false result means deny;
// callers must surface the denial, never silently proceed.
type Policy interface {
	CanView(userID uint64, p ProjectFacts) bool
	CanEdit(userID uint64, p ProjectFacts) bool
	CanDelete(userID uint64, p ProjectFacts) bool
	CanCreate() bool

	// EditableFields returns the fields the role may touch on projects
	// it can edit. nil means every field.
	EditableFields() FieldSet
}

// For returns the policy for a role. Unknown roles get a deny-all policy.
func For(role Role) Policy {
	switch role {
	case RoleAdmin:
		return adminPolicy{}
	case RoleSupervisor:
		return supervisorPolicy{}
	case RoleAnalyst:
		return analystPolicy{}
	}
	return denyPolicy{}
}

type adminPolicy struct{}

func (adminPolicy) CanView(uint64, ProjectFacts) bool   { return true }
func (adminPolicy) CanEdit(uint64, ProjectFacts) bool   { return true }
func (adminPolicy) CanDelete(uint64, ProjectFacts) bool { return true }
func (adminPolicy) CanCreate() bool                     { return true }
func (adminPolicy) EditableFields() FieldSet            { return nil }

type supervisorPolicy struct{}

func (supervisorPolicy) CanView(userID uint64, p ProjectFacts) bool   { return p.OwnerID == userID }
func (supervisorPolicy) CanEdit(userID uint64, p ProjectFacts) bool   { return p.OwnerID == userID }
func (supervisorPolicy) CanDelete(userID uint64, p ProjectFacts) bool { return p.OwnerID == userID }
func (supervisorPolicy) CanCreate() bool                              { return true }
func (supervisorPolicy) EditableFields() FieldSet                     { return nil }

type analystPolicy struct{}

func (analystPolicy) CanView(userID uint64, p ProjectFacts) bool { return p.assigned(userID) }
func (analystPolicy) CanEdit(userID uint64, p ProjectFacts) bool { return p.assigned(userID) }
func (analystPolicy) CanDelete(uint64, ProjectFacts) bool        { return false }
func (analystPolicy) CanCreate() bool                            { return false }
func (analystPolicy) EditableFields() FieldSet                   { return ProgressFields }

type denyPolicy struct{}

func (denyPolicy) CanView(uint64, ProjectFacts) bool   { return false }
func (denyPolicy) CanEdit(uint64, ProjectFacts) bool   { return false }
func (denyPolicy) CanDelete(uint64, ProjectFacts) bool { return false }
func (denyPolicy) CanCreate() bool                     { return false }
func (denyPolicy) EditableFields() FieldSet            { return FieldSet{} }
