package repository

import (
	"database/sql"
	"time"

	"github.com/dsvi/school-portal-backend/internal/model"
	"github.com/dsvi/school-portal-backend/internal/recipient"
)

type SchoolRepositoryInterface interface {
	ListAccessibleSchools(caller recipient.CallerContext) ([]model.School, error)
	GetByID(id int) (*model.School, error)
	ListExpiringOn(date time.Time) ([]model.School, error)
}

// SchoolRepository is the read-only view over the school directory tables.
type SchoolRepository struct {
	DB *sql.DB
}

const schoolColumns = `id, name, contact_email, admin_user_id, package_type, subscription_status, subscription_end`

// ListAccessibleSchools applies the caller visibility rules: DSVI-level
// callers see every school; school-level callers see their assigned schools,
// falling back to schools they administrate when no assignment rows exist.
func (r *SchoolRepository) ListAccessibleSchools(caller recipient.CallerContext) ([]model.School, error) {
	if caller.Role == recipient.RoleDSVIAdmin {
		return r.query(`SELECT `+schoolColumns+` FROM schools ORDER BY id`, nil)
	}

	schools, err := r.query(`
        SELECT `+schoolColumns+` FROM schools
        WHERE id IN (SELECT school_id FROM school_assignments WHERE user_id=$1)
        ORDER BY id`, []interface{}{caller.UserID})
	if err != nil {
		return nil, err
	}
	if len(schools) > 0 {
		return schools, nil
	}

	return r.query(`SELECT `+schoolColumns+` FROM schools WHERE admin_user_id=$1 ORDER BY id`,
		[]interface{}{caller.UserID})
}

func (r *SchoolRepository) GetByID(id int) (*model.School, error) {
	var s model.School
	err := r.DB.QueryRow(`SELECT `+schoolColumns+` FROM schools WHERE id=$1`, id).Scan(
		&s.ID, &s.Name, &s.ContactEmail, &s.AdminUserID,
		&s.PackageType, &s.SubscriptionStatus, &s.SubscriptionEnd,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListExpiringOn matches schools whose subscription ends exactly on the given
// calendar date and whose subscription is still active.
func (r *SchoolRepository) ListExpiringOn(date time.Time) ([]model.School, error) {
	return r.query(`
        SELECT `+schoolColumns+` FROM schools
        WHERE subscription_end::date = $1::date AND subscription_status=$2
        ORDER BY id`, []interface{}{date.Format("2006-01-02"), model.SubscriptionStatusActive})
}

func (r *SchoolRepository) query(query string, args []interface{}) ([]model.School, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []model.School{}
	for rows.Next() {
		var s model.School
		if err := rows.Scan(
			&s.ID, &s.Name, &s.ContactEmail, &s.AdminUserID,
			&s.PackageType, &s.SubscriptionStatus, &s.SubscriptionEnd,
		); err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, nil
}

var _ SchoolRepositoryInterface = (*SchoolRepository)(nil)
var _ recipient.SchoolDirectory = (*SchoolRepository)(nil)
