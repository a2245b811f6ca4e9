package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dsvi/school-portal-backend/internal/model"
)

type MessageRepositoryInterface interface {
	CreateWithRecipients(msg *model.Message, recipients []model.MessageRecipient) error
	GetByID(id int) (*model.Message, error)
	ListMessages(offset, limit int, status, messageType string) ([]*model.Message, int, error)
	ListRecipients(messageID int) ([]model.MessageRecipient, error)
	UpdateRecipientStatus(recipientID int, status, errorMessage string) error
}

type MessageRepository struct {
	DB *sql.DB
}

// CreateWithRecipients inserts the message row and its recipient rows in one
// transaction, so a message never exists without its recipients.
func (r *MessageRepository) CreateWithRecipients(msg *model.Message, recipients []model.MessageRecipient) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	msg.CreatedAt = now

	query := `
        INSERT INTO messages
        (sender_user_id, subject, body, message_type, template_id, status, scheduled_at, sent_at,
         provider, provider_message_id, provider_response, error_message,
         total_recipients, successful_deliveries, failed_deliveries, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING id
    `
	err = tx.QueryRow(query,
		msg.SenderUserID, msg.Subject, msg.Body, msg.MessageType, msg.TemplateID,
		msg.Status, msg.ScheduledAt, msg.SentAt,
		msg.Provider, msg.ProviderMessageID, msg.ProviderResponse, msg.ErrorMessage,
		msg.TotalRecipients, msg.SuccessfulDeliveries, msg.FailedDeliveries, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return err
	}

	recQuery := `
        INSERT INTO message_recipients
        (message_id, school_id, email, name, recipient_type, delivery_status, sent_at, error_message, retry_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	for i := range recipients {
		rec := &recipients[i]
		rec.MessageID = msg.ID
		rec.CreatedAt = now
		err = tx.QueryRow(recQuery,
			rec.MessageID, rec.SchoolID, rec.Email, rec.Name, rec.RecipientType,
			rec.DeliveryStatus, rec.SentAt, rec.ErrorMessage, rec.RetryCount, rec.CreatedAt,
		).Scan(&rec.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *MessageRepository) GetByID(id int) (*model.Message, error) {
	query := `
        SELECT id, sender_user_id, subject, body, message_type, template_id, status, scheduled_at, sent_at,
               provider, provider_message_id, provider_response, error_message,
               total_recipients, successful_deliveries, failed_deliveries, created_at, updated_at
        FROM messages WHERE id=$1
    `
	var m model.Message
	err := r.DB.QueryRow(query, id).Scan(
		&m.ID, &m.SenderUserID, &m.Subject, &m.Body, &m.MessageType, &m.TemplateID,
		&m.Status, &m.ScheduledAt, &m.SentAt,
		&m.Provider, &m.ProviderMessageID, &m.ProviderResponse, &m.ErrorMessage,
		&m.TotalRecipients, &m.SuccessfulDeliveries, &m.FailedDeliveries, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) ListMessages(offset, limit int, status, messageType string) ([]*model.Message, int, error) {
	messages := []*model.Message{}
	query := `
        SELECT id, sender_user_id, subject, body, message_type, template_id, status, scheduled_at, sent_at,
               provider, provider_message_id, provider_response, error_message,
               total_recipients, successful_deliveries, failed_deliveries, created_at, updated_at
        FROM messages WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	if messageType != "" {
		query += fmt.Sprintf(" AND message_type=$%d", argPos)
		args = append(args, messageType)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		m := &model.Message{}
		if err := rows.Scan(
			&m.ID, &m.SenderUserID, &m.Subject, &m.Body, &m.MessageType, &m.TemplateID,
			&m.Status, &m.ScheduledAt, &m.SentAt,
			&m.Provider, &m.ProviderMessageID, &m.ProviderResponse, &m.ErrorMessage,
			&m.TotalRecipients, &m.SuccessfulDeliveries, &m.FailedDeliveries, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}

	countQuery := `SELECT COUNT(*) FROM messages WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
		argPosCount++
	}
	if messageType != "" {
		countQuery += fmt.Sprintf(" AND message_type=$%d", argPosCount)
		argsCount = append(argsCount, messageType)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *MessageRepository) ListRecipients(messageID int) ([]model.MessageRecipient, error) {
	query := `
        SELECT id, message_id, school_id, email, name, recipient_type, delivery_status,
               sent_at, delivered_at, opened_at, clicked_at, error_message, retry_count, created_at
        FROM message_recipients
        WHERE message_id=$1
        ORDER BY id
    `
	rows, err := r.DB.Query(query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.MessageRecipient{}
	for rows.Next() {
		var rec model.MessageRecipient
		if err := rows.Scan(
			&rec.ID, &rec.MessageID, &rec.SchoolID, &rec.Email, &rec.Name,
			&rec.RecipientType, &rec.DeliveryStatus,
			&rec.SentAt, &rec.DeliveredAt, &rec.OpenedAt, &rec.ClickedAt,
			&rec.ErrorMessage, &rec.RetryCount, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, nil
}

// UpdateRecipientStatus writes a new delivery status for one recipient. The
// monotonic lifecycle check happens in the service layer before this runs.
func (r *MessageRepository) UpdateRecipientStatus(recipientID int, status, errorMessage string) error {
	query := `UPDATE message_recipients SET delivery_status=$1, error_message=$2, retry_count=retry_count+1 WHERE id=$3`
	_, err := r.DB.Exec(query, status, errorMessage, recipientID)
	return err
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
