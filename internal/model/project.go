package model

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

type Project struct {
	ID     string        `db:"id" json:"id" yaml:"id"`
	Name   string        `db:"name" json:"name" yaml:"name"`
	Status ProjectStatus `db:"status" json:"status" yaml:"status"`
}

// Open reports whether new time entries may reference the project.
func (p Project) Open() bool {
	return p.Status == ProjectActive
}
