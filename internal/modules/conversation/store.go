// README: Conversation store backed by PostgreSQL.
package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"andino/internal/modules/trip"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, c *Conversation) error {
	stateJSON, err := json.Marshal(c.State)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO conversations (id, user_ref, session_id, active, trip_state, state_version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		c.ID, c.UserRef, c.SessionID, c.Active, stateJSON, c.StateVersion, c.CreatedAt,
	)
	return err
}

// Get loads the conversation row and its leads. Messages are loaded
// separately via Recent.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, user_ref, session_id, active, trip_state, state_version, created_at, updated_at
        FROM conversations
        WHERE id::text = $1`, id)

	var c Conversation
	var userRef sql.NullString
	var stateJSON []byte
	err := row.Scan(&c.ID, &userRef, &c.SessionID, &c.Active, &stateJSON,
		&c.StateVersion, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if userRef.Valid {
		c.UserRef = &userRef.String
	}
	c.State = &trip.State{}
	if len(stateJSON) > 0 {
		if err := json.Unmarshal(stateJSON, c.State); err != nil {
			return nil, err
		}
	}

	leads, err := s.leadsByConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Leads = leads
	return &c, nil
}

// SaveState overwrites the embedded trip state document, guarded by an
// optimistic version check so a lost race surfaces as ErrConflict instead of
// silently dropping a write.
func (s *Store) SaveState(ctx context.Context, id string, state *trip.State, expectedVersion int) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
        UPDATE conversations
        SET trip_state = $1,
            state_version = state_version + 1,
            updated_at = NOW()
        WHERE id::text = $2 AND state_version = $3`,
		stateJSON, id, expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// AppendMessage inserts one message and prunes the transcript beyond the
// stored window.
func (s *Store) AppendMessage(ctx context.Context, m *Message) error {
	var extracted []byte
	if m.Extracted != nil {
		b, err := json.Marshal(m.Extracted)
		if err != nil {
			return err
		}
		extracted = b
	}
	row := s.db.QueryRow(ctx, `
        INSERT INTO messages (conversation_id, role, content, intent, confidence, extracted, tool_used, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`,
		m.ConvID, string(m.Role), m.Content, m.Intent, m.Confidence, extracted, m.ToolUsed, m.CreatedAt,
	)
	if err := row.Scan(&m.ID); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, `
        DELETE FROM messages
        WHERE conversation_id = $1
          AND id NOT IN (
            SELECT id FROM messages
            WHERE conversation_id = $1
            ORDER BY id DESC
            LIMIT $2
          )`, m.ConvID, HistoryStored)
	return err
}

// Recent returns the trailing messages in chronological order.
func (s *Store) Recent(ctx context.Context, convID string, limit int) ([]Message, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, conversation_id, role, content, intent, confidence, extracted, tool_used, created_at
        FROM (
            SELECT * FROM messages
            WHERE conversation_id = $1
            ORDER BY id DESC
            LIMIT $2
        ) tail
        ORDER BY id ASC`, convID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var intent, toolUsed sql.NullString
		var confidence sql.NullFloat64
		var extracted []byte
		err := rows.Scan(&m.ID, &m.ConvID, &m.Role, &m.Content,
			&intent, &confidence, &extracted, &toolUsed, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		if intent.Valid {
			m.Intent = &intent.String
		}
		if confidence.Valid {
			m.Confidence = &confidence.Float64
		}
		if toolUsed.Valid {
			m.ToolUsed = &toolUsed.String
		}
		if len(extracted) > 0 {
			m.Extracted = &trip.State{}
			_ = json.Unmarshal(extracted, m.Extracted)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CreateLead(ctx context.Context, l *Lead) error {
	stateJSON, err := json.Marshal(l.State)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO leads (id, conversation_id, entity_type, entity_id, name, phone, email, notes, status, trip_state, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.ConvID, string(l.EntityType), l.EntityID,
		l.Name, l.Phone, l.Email, l.Notes, string(l.Status), stateJSON, l.CreatedAt,
	)
	return err
}

func (s *Store) leadsByConversation(ctx context.Context, convID string) ([]Lead, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, conversation_id, entity_type, entity_id, name, phone, email, notes, status, trip_state, created_at
        FROM leads
        WHERE conversation_id = $1
        ORDER BY created_at ASC`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		var name, phone, email sql.NullString
		var stateJSON []byte
		err := rows.Scan(&l.ID, &l.ConvID, &l.EntityType, &l.EntityID,
			&name, &phone, &email, &l.Notes, &l.Status, &stateJSON, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		if name.Valid {
			l.Name = &name.String
		}
		if phone.Valid {
			l.Phone = &phone.String
		}
		if email.Valid {
			l.Email = &email.String
		}
		if len(stateJSON) > 0 {
			l.State = &trip.State{}
			_ = json.Unmarshal(stateJSON, l.State)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
