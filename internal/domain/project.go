package domain

import "time"

// Project is the unit of tenancy. The manager owns the project and is the
// only principal allowed to mutate it or administer its tasks and team.
// Team members get read access and may move task status.
type Project struct {
	ID          string
	ProjectName string
	ClientName  string
	Description string
	ManagerID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsManager reports whether userID administers the project.
func (p Project) IsManager(userID string) bool {
	return p.ManagerID == userID
}
