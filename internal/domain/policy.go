package domain

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type ResourceType string

const (
	ResourceAttendance   ResourceType = "attendance"
	ResourcePerformance  ResourceType = "performance"
	ResourceLeaveRequest ResourceType = "leave_request"
	ResourceAnnouncement ResourceType = "announcement"
	ResourceGoal         ResourceType = "goal"
	ResourceConnection   ResourceType = "connection"
	ResourceNotification ResourceType = "notification"
)

// Resource is the authorization view of a record: enough attributes to run
// the rule list, nothing more.
type Resource struct {
	Type      ResourceType
	OwnerID   uint // the athlete (or parent, for connections) the record is about
	ClubID    uint
	CreatedBy uint
}

// Decision is a first-class authorization outcome. Deny is not an error.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
