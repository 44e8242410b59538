package model

// Enum values are stored as their wire strings so that the database rows,
// the JSON payloads and the CSV export all agree without mapping tables.

// Role of a user on the platform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// GroupType is the geographic/organizational bucket of a project.
type GroupType string

const (
	GroupIsrael GroupType = "Israel"
	GroupGlobal GroupType = "Global"
)

// ModelType is the billing model of a project.
type ModelType string

const (
	ModelHourly           ModelType = "Hourly"
	ModelSuccess          ModelType = "Success"
	ModelSuccessExecutive ModelType = "Success Executive"
)

// ProjectStatus lifecycle. "archived" is a status value, not a deletion.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusArchived  ProjectStatus = "archived"
)

// AuditAction recorded for every project mutation.
type AuditAction string

const (
	AuditCreate  AuditAction = "CREATE"
	AuditUpdate  AuditAction = "UPDATE"
	AuditDelete  AuditAction = "DELETE"
	AuditArchive AuditAction = "ARCHIVE"
)

// Static enumerations exposed to filter UIs.
var (
	ModelTypes = []ModelType{ModelHourly, ModelSuccess, ModelSuccessExecutive}
	GroupTypes = []GroupType{GroupIsrael, GroupGlobal}
	Statuses   = []ProjectStatus{StatusActive, StatusCompleted, StatusArchived}
)
