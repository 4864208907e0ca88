package storage

import "time"

type Task struct {
	ID        string
	Title     string
	Done      bool
	Deleted   bool
	UpdatedAt time.Time
}

type TaskListFilter struct {
	IncludeDeleted bool
}
