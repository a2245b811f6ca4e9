package repository

import (
	"database/sql"
	"time"

	"github.com/dsvi/school-portal-backend/internal/model"
)

type AutomationRuleRepositoryInterface interface {
	Create(rule *model.AutomationRule) error
	ListActive() ([]*model.AutomationRule, error)
	ListAll() ([]*model.AutomationRule, error)
	UpdateLastRun(id int, at time.Time) error
}

type AutomationRuleRepository struct {
	DB *sql.DB
}

func (r *AutomationRuleRepository) Create(rule *model.AutomationRule) error {
	rule.CreatedAt = time.Now()
	query := `
        INSERT INTO automation_rules (name, trigger_type, template_id, trigger_days_before, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, rule.Name, rule.TriggerType, rule.TemplateID,
		rule.TriggerDaysBefore, rule.IsActive, rule.CreatedAt).Scan(&rule.ID)
}

func (r *AutomationRuleRepository) ListActive() ([]*model.AutomationRule, error) {
	return r.list(`WHERE is_active = true`)
}

func (r *AutomationRuleRepository) ListAll() ([]*model.AutomationRule, error) {
	return r.list("")
}

func (r *AutomationRuleRepository) list(where string) ([]*model.AutomationRule, error) {
	query := `
        SELECT id, name, trigger_type, template_id, trigger_days_before, is_active, last_run_at, next_run_at, created_at
        FROM automation_rules ` + where + ` ORDER BY id`

	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*model.AutomationRule{}
	for rows.Next() {
		rule := &model.AutomationRule{}
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.TriggerType, &rule.TemplateID,
			&rule.TriggerDaysBefore, &rule.IsActive, &rule.LastRunAt, &rule.NextRunAt, &rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *AutomationRuleRepository) UpdateLastRun(id int, at time.Time) error {
	query := `UPDATE automation_rules SET last_run_at=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, at, id)
	return err
}

var _ AutomationRuleRepositoryInterface = (*AutomationRuleRepository)(nil)
