package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.MessageTemplate) error
	Update(t *model.MessageTemplate) error
	Delete(id int) error
	GetByID(id int) (*model.MessageTemplate, error)
	ListTemplates(activeOnly bool) ([]*model.MessageTemplate, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(t *model.MessageTemplate) error {
	t.CreatedAt = time.Now()
	if t.TemplateType == "" {
		t.TemplateType = model.TemplateTypeCustom
	}
	query := `
        INSERT INTO message_templates (name, subject, body, template_type, variables, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query, t.Name, t.Subject, t.Body, t.TemplateType,
		pq.Array(t.Variables), t.IsActive, t.CreatedAt).Scan(&t.ID)
}

func (r *TemplateRepository) Update(t *model.MessageTemplate) error {
	query := `
        UPDATE message_templates
        SET name=$1, subject=$2, body=$3, template_type=$4, variables=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
    `
	res, err := r.DB.Exec(query, t.Name, t.Subject, t.Body, t.TemplateType,
		pq.Array(t.Variables), t.IsActive, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	return nil
}

func (r *TemplateRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM message_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewTemplateNotFound(id)
	}
	return nil
}

func (r *TemplateRepository) GetByID(id int) (*model.MessageTemplate, error) {
	query := `
        SELECT id, name, subject, body, template_type, variables, is_active, created_at, updated_at
        FROM message_templates WHERE id=$1
    `
	var t model.MessageTemplate
	err := r.DB.QueryRow(query, id).Scan(
		&t.ID, &t.Name, &t.Subject, &t.Body, &t.TemplateType,
		pq.Array(&t.Variables), &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) ListTemplates(activeOnly bool) ([]*model.MessageTemplate, error) {
	query := `
        SELECT id, name, subject, body, template_type, variables, is_active, created_at, updated_at
        FROM message_templates
    `
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY id`

	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*model.MessageTemplate{}
	for rows.Next() {
		t := &model.MessageTemplate{}
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Subject, &t.Body, &t.TemplateType,
			pq.Array(&t.Variables), &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
