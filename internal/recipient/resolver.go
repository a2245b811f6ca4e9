package recipient

import (
	"strings"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
)

// Caller roles recognized by the visibility rules.
const (
	RoleDSVIAdmin   = "dsvi_admin"
	RoleSchoolAdmin = "school_admin"
)

// CallerContext is the identity-service view of the requesting user.
type CallerContext struct {
	UserID            int   `json:"user_id"`
	Role              string `json:"role"`
	AssignedSchoolIDs []int `json:"assigned_school_ids,omitempty"`
}

type ExternalEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Spec is a request's recipient specification before expansion.
type Spec struct {
	ExternalEmails []ExternalEmail `json:"external_emails,omitempty"`
	SchoolIDs      []int           `json:"school_ids,omitempty"`
	AllSchools     bool            `json:"all_schools,omitempty"`
}

// SchoolDirectory lists the schools visible to a caller. A DSVI-level caller
// sees every school; a school-level caller sees only assigned schools.
type SchoolDirectory interface {
	ListAccessibleSchools(caller CallerContext) ([]model.School, error)
}

type Resolver struct {
	Schools SchoolDirectory
}

// Resolve expands a spec into a flat recipient list. Explicit addresses are
// trimmed and empty entries dropped; school identifiers become school_admin
// recipients without an email (the gateway resolves school id → admin address
// at the delivery boundary); all_schools expands to the caller's visibility
// set. An empty expansion fails with ErrNoRecipients.
func (r *Resolver) Resolve(spec Spec, caller CallerContext) ([]model.MessageRecipient, error) {
	recipients := []model.MessageRecipient{}

	for _, e := range spec.ExternalEmails {
		email := strings.TrimSpace(e.Email)
		if email == "" {
			continue
		}
		recipients = append(recipients, model.MessageRecipient{
			Email:          email,
			Name:           strings.TrimSpace(e.Name),
			RecipientType:  model.RecipientTypeExternal,
			DeliveryStatus: model.DeliveryStatusPending,
		})
	}

	schoolIDs := spec.SchoolIDs
	if spec.AllSchools {
		schools, err := r.Schools.ListAccessibleSchools(caller)
		if err != nil {
			return nil, err
		}
		schoolIDs = make([]int, 0, len(schools))
		for _, s := range schools {
			schoolIDs = append(schoolIDs, s.ID)
		}
	}

	for _, id := range schoolIDs {
		sid := id
		recipients = append(recipients, model.MessageRecipient{
			SchoolID:       &sid,
			RecipientType:  model.RecipientTypeSchoolAdmin,
			DeliveryStatus: model.DeliveryStatusPending,
		})
	}

	if len(recipients) == 0 {
		return nil, appErrors.NewNoRecipients()
	}
	return recipients, nil
}
