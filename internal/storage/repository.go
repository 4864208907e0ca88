package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrDuplicate    = errors.New("storage: duplicate id")
	ErrUnknownField = errors.New("storage: unknown field")
)

type Repository interface {
	InsertTask(ctx context.Context, in Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTaskField(ctx context.Context, id, field string, value any) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error)
}
