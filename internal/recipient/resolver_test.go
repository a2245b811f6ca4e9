package recipient_test

import (
	"errors"
	"testing"

	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
	"github.com/dsvi/school-portal-backend/internal/recipient"
)

// MockSchoolDirectory serves a fixed school list filtered by caller role.
type MockSchoolDirectory struct {
	schools []model.School
}

func (m *MockSchoolDirectory) ListAccessibleSchools(caller recipient.CallerContext) ([]model.School, error) {
	if caller.Role == recipient.RoleDSVIAdmin {
		return m.schools, nil
	}

	assigned := map[int]bool{}
	for _, id := range caller.AssignedSchoolIDs {
		assigned[id] = true
	}
	visible := []model.School{}
	for _, s := range m.schools {
		if assigned[s.ID] {
			visible = append(visible, s)
		}
	}
	return visible, nil
}

func TestResolveUnionOfExternalAndSchools(t *testing.T) {
	r := &recipient.Resolver{Schools: &MockSchoolDirectory{}}

	spec := recipient.Spec{
		ExternalEmails: []recipient.ExternalEmail{{Email: "a@x.com"}},
		SchoolIDs:      []int{1},
	}

	recipients, err := r.Resolve(spec, recipient.CallerContext{Role: recipient.RoleDSVIAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if len(recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(recipients))
	}
	if recipients[0].RecipientType != model.RecipientTypeExternal {
		t.Errorf("expected external first, got %s", recipients[0].RecipientType)
	}
	if recipients[1].RecipientType != model.RecipientTypeSchoolAdmin {
		t.Errorf("expected school_admin second, got %s", recipients[1].RecipientType)
	}
	if recipients[1].SchoolID == nil || *recipients[1].SchoolID != 1 {
		t.Errorf("expected school id 1 carried on recipient")
	}
	if recipients[1].Email != "" {
		t.Errorf("school admin address must stay unresolved, got %q", recipients[1].Email)
	}
}

func TestResolveTrimsAndDropsEmptyExternalEmails(t *testing.T) {
	r := &recipient.Resolver{Schools: &MockSchoolDirectory{}}

	spec := recipient.Spec{
		ExternalEmails: []recipient.ExternalEmail{
			{Email: "  a@x.com  ", Name: " Alice "},
			{Email: "   "},
			{Email: ""},
		},
	}

	recipients, err := r.Resolve(spec, recipient.CallerContext{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recipients) != 1 {
		t.Fatalf("expected 1 recipient, got %d", len(recipients))
	}
	if recipients[0].Email != "a@x.com" || recipients[0].Name != "Alice" {
		t.Errorf("expected trimmed entry, got %+v", recipients[0])
	}
}

func TestResolveAllSchoolsVisibilityContainment(t *testing.T) {
	dir := &MockSchoolDirectory{schools: []model.School{
		{ID: 1, Name: "S1"},
		{ID: 2, Name: "S2"},
		{ID: 3, Name: "S3"},
	}}
	r := &recipient.Resolver{Schools: dir}

	caller := recipient.CallerContext{
		UserID:            7,
		Role:              recipient.RoleSchoolAdmin,
		AssignedSchoolIDs: []int{1, 2},
	}

	recipients, err := r.Resolve(recipient.Spec{AllSchools: true}, caller)
	if err != nil {
		t.Fatal(err)
	}
	if len(recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(recipients))
	}
	allowed := map[int]bool{1: true, 2: true}
	for _, rec := range recipients {
		if rec.SchoolID == nil || !allowed[*rec.SchoolID] {
			t.Errorf("recipient outside visibility set: %+v", rec)
		}
	}
}

func TestResolveDSVICallerSeesAllSchools(t *testing.T) {
	dir := &MockSchoolDirectory{schools: []model.School{{ID: 1}, {ID: 2}, {ID: 3}}}
	r := &recipient.Resolver{Schools: dir}

	recipients, err := r.Resolve(recipient.Spec{AllSchools: true},
		recipient.CallerContext{Role: recipient.RoleDSVIAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if len(recipients) != 3 {
		t.Fatalf("expected 3 recipients, got %d", len(recipients))
	}
}

func TestResolveEmptySetFails(t *testing.T) {
	r := &recipient.Resolver{Schools: &MockSchoolDirectory{}}

	_, err := r.Resolve(recipient.Spec{
		ExternalEmails: []recipient.ExternalEmail{{Email: "   "}},
	}, recipient.CallerContext{})

	var noRecipients *appErrors.ErrNoRecipients
	if !errors.As(err, &noRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}
