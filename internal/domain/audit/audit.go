package audit

import (
	"context"
	"encoding/json"
	"time"

	"leavedesk/internal/platform/querier"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Service appends one row per leave transition so operators can reconstruct
// how a request, its quota and its attendance rows got where they are.
type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, before, after any) error {
	var beforeJSON, afterJSON []byte
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		afterJSON = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity_type, entity_id, before_json, after_json, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, actorID, action, entityType, entityID, beforeJSON, afterJSON, requestID)
	return err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, actor_id, action, entity_type, entity_id, request_id, created_at, before_json, after_json
    FROM audit_events
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.Action, &ev.EntityType, &ev.EntityID, &ev.RequestID, &ev.CreatedAt, &ev.Before, &ev.After); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
