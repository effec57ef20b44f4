package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ai-chat/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateConversation(ctx context.Context, conversation *model.Conversation) error {
	query := "INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		conversation.ID, conversation.Title, conversation.CreatedAt, conversation.UpdatedAt)
	return err
}

func (r *sqliteRepository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	query := "SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, conversationID)
	var conversation model.Conversation
	err := row.Scan(&conversation.ID, &conversation.Title, &conversation.CreatedAt, &conversation.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *sqliteRepository) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	query := "SELECT id, title, created_at, updated_at FROM conversations ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*model.Conversation
	for rows.Next() {
		var conversation model.Conversation
		if err := rows.Scan(&conversation.ID, &conversation.Title, &conversation.CreatedAt, &conversation.UpdatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, &conversation)
	}
	return conversations, rows.Err()
}

// AddMessage uses a transaction so the message insert and the conversation
// timestamp bump land together or not at all.
func (r *sqliteRepository) AddMessage(ctx context.Context, conversationID string, message *model.Message) error {
	if !message.Role.Valid() {
		return fmt.Errorf("refusing to persist message with invalid role %q", message.Role)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// Ensure transaction is rolled back on error
	defer tx.Rollback()

	insertMsgQuery := `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertMsgQuery,
		message.ID,
		conversationID,
		string(message.Role),
		message.Content,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert message: %w", err)
	}

	updateConvoQuery := "UPDATE conversations SET updated_at = ? WHERE id = ?"
	_, err = tx.ExecContext(ctx, updateConvoQuery, time.Now().UTC(), conversationID)
	if err != nil {
		return fmt.Errorf("could not update conversation timestamp: %w", err)
	}

	return tx.Commit()
}

func (r *sqliteRepository) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	// rowid breaks ties between messages written within the same clock tick.
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role, err = model.ParseRole(role)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
