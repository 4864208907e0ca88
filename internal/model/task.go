package model

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMissingID    = errors.New("model: task id is required")
	ErrMissingTitle = errors.New("model: task title is required")
)

// Document is the untyped record shape exchanged with the sync layer.
type Document map[string]any

type Task struct {
	ID      string `json:"_id"`
	Title   string `json:"title"`
	Done    bool   `json:"done"`
	Deleted bool   `json:"deleted"`
}

func NewTask(title string) Task {
	return Task{
		ID:    uuid.NewString(),
		Title: title,
	}
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrMissingTitle
	}
	return nil
}

func (t Task) Document() Document {
	return Document{
		"_id":     t.ID,
		"title":   t.Title,
		"done":    t.Done,
		"deleted": t.Deleted,
	}
}

// DecodeTask converts one result document into a Task. Missing fields take
// their zero value; wrongly typed fields are an error.
func DecodeTask(doc Document) (Task, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Task{}, err
	}
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return Task{}, err
	}
	if strings.TrimSpace(t.ID) == "" {
		return Task{}, ErrMissingID
	}
	return t, nil
}

// DecodeTasks is the only place result sets are turned into typed tasks.
// Undecodable and soft-deleted documents are skipped.
func DecodeTasks(docs []Document) ([]Task, int) {
	out := make([]Task, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		t, err := DecodeTask(doc)
		if err != nil {
			skipped++
			continue
		}
		if t.Deleted {
			continue
		}
		out = append(out, t)
	}
	return out, skipped
}
