package dql

import (
	"fmt"

	"github.com/sandeepkv93/taskmesh/internal/model"
)

type Handlers struct {
	Insert func(collection string, doc model.Document) error
	Update func(collection, id, field string, value any) error
}

// Execute binds params into a parsed mutation and dispatches it. Selects are
// not mutations and are rejected.
func Execute(stmt Statement, params model.Document, handlers Handlers) error {
	switch stmt.Kind {
	case KindInsert:
		if handlers.Insert == nil {
			return &StatementError{Code: ErrCodeHandlerMissing, Message: "insert handler not configured"}
		}
		v, err := stmt.Insert.Document.Resolve(params)
		if err != nil {
			return err
		}
		doc, err := asDocument(v)
		if err != nil {
			return err
		}
		return handlers.Insert(stmt.Collection, doc)
	case KindUpdate:
		if handlers.Update == nil {
			return &StatementError{Code: ErrCodeHandlerMissing, Message: "update handler not configured"}
		}
		rawID, err := stmt.Update.ID.Resolve(params)
		if err != nil {
			return err
		}
		id, ok := rawID.(string)
		if !ok || id == "" {
			return &StatementError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("_id must be a non-empty string, got %v", rawID)}
		}
		value, err := stmt.Update.Value.Resolve(params)
		if err != nil {
			return err
		}
		return handlers.Update(stmt.Collection, id, stmt.Update.Field, value)
	case KindSelect:
		return &StatementError{Code: ErrCodeUnsupported, Message: "select cannot be executed as a mutation"}
	default:
		return &StatementError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unknown statement kind: %s", stmt.Kind)}
	}
}

func asDocument(v any) (model.Document, error) {
	switch doc := v.(type) {
	case model.Document:
		return doc, nil
	case map[string]any:
		return model.Document(doc), nil
	case model.Task:
		return doc.Document(), nil
	default:
		return nil, &StatementError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("document parameter has type %T", v)}
	}
}
