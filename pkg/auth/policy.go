package auth

type Operation string

const (
	OpCreateSlot      Operation = "create_slot"
	OpListSlots       Operation = "list_slots"
	OpGetSlot         Operation = "get_slot"
	OpUpdateSlot      Operation = "update_slot"
	OpDeleteSlot      Operation = "delete_slot"
	OpBookInterview   Operation = "book_interview"
	OpListInterviews  Operation = "list_interviews"
	OpGetInterview    Operation = "get_interview"
	OpUpdateInterview Operation = "update_interview"
	OpCancelInterview Operation = "cancel_interview"
	OpDeleteInterview Operation = "delete_interview"
	OpRebookInterview Operation = "rebook_interview"
)

type Access int

const (
	Deny Access = iota
	// Own allows the operation on resources the requester owns.
	Own
	Any
)

// Ownership describes who a resource belongs to. Empty fields never match.
type Ownership struct {
	CandidateID   string
	InterviewerID string
}

// Owns reports whether r owns a resource in its role's capacity: candidates
// own through CandidateID, interviewers through InterviewerID.
func (o Ownership) Owns(r Requester) bool {
	switch r.Role {
	case RoleCandidate:
		return o.CandidateID != "" && o.CandidateID == r.ID
	case RoleInterviewer:
		return o.InterviewerID != "" && o.InterviewerID == r.ID
	case RoleAdmin:
		return true
	}
	return false
}

type Policy struct {
	rules map[Operation]map[Role]Access
}

func NewPolicy(rules map[Operation]map[Role]Access) *Policy {
	return &Policy{rules: rules}
}

func DefaultPolicy() *Policy {
	return NewPolicy(map[Operation]map[Role]Access{
		OpCreateSlot:      {RoleInterviewer: Own, RoleAdmin: Any},
		OpListSlots:       {RoleCandidate: Any, RoleInterviewer: Any, RoleAdmin: Any},
		OpGetSlot:         {RoleCandidate: Any, RoleInterviewer: Any, RoleAdmin: Any},
		OpUpdateSlot:      {RoleInterviewer: Own, RoleAdmin: Any},
		OpDeleteSlot:      {RoleInterviewer: Own, RoleAdmin: Any},
		OpBookInterview:   {RoleCandidate: Own, RoleAdmin: Any},
		OpListInterviews:  {RoleCandidate: Own, RoleInterviewer: Own, RoleAdmin: Any},
		OpGetInterview:    {RoleCandidate: Own, RoleInterviewer: Own, RoleAdmin: Any},
		OpUpdateInterview: {RoleInterviewer: Own, RoleAdmin: Any},
		OpCancelInterview: {RoleCandidate: Own, RoleInterviewer: Own, RoleAdmin: Any},
		OpDeleteInterview: {RoleInterviewer: Own, RoleAdmin: Any},
		OpRebookInterview: {RoleCandidate: Own, RoleAdmin: Any},
	})
}

func (p *Policy) Access(op Operation, role Role) Access {
	return p.rules[op][role]
}

// CanAttempt is the role gate applied before the resource is loaded.
func (p *Policy) CanAttempt(r Requester, op Operation) bool {
	return p.Access(op, r.Role) != Deny
}

// Allows decides op for r on a resource with the given ownership.
func (p *Policy) Allows(r Requester, op Operation, owner Ownership) bool {
	switch p.Access(op, r.Role) {
	case Any:
		return true
	case Own:
		return owner.Owns(r)
	}
	return false
}
