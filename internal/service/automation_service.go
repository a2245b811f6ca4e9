package service

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/dsvi/school-portal-backend/internal/model"
	"github.com/dsvi/school-portal-backend/internal/recipient"
	"github.com/dsvi/school-portal-backend/internal/repository"
)

const defaultExpiryWarningDays = 14

// MessageSender is the orchestrator contract the automation engine depends on.
type MessageSender interface {
	SendMessage(ctx context.Context, req SendRequest, caller recipient.CallerContext) (*SendResult, error)
}

// AutomationService evaluates time-based trigger rules against current
// subscription state and dispatches one message per qualifying school.
type AutomationService struct {
	RuleRepo   repository.AutomationRuleRepositoryInterface
	SchoolRepo repository.SchoolRepositoryInterface
	Messages   MessageSender
	Workers    int

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

// ProcessAutomatedMessages runs one evaluation pass over all active rules and
// returns the number of messages dispatched. A failure for one school never
// aborts the rest of the pass.
func (s *AutomationService) ProcessAutomatedMessages(ctx context.Context) (int, error) {
	rules, err := s.RuleRepo.ListActive()
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, rule := range rules {
		switch rule.TriggerType {
		case model.TriggerSubscriptionExpiry:
			processed += s.processExpiryRule(ctx, rule)
		case model.TriggerPaymentOverdue, model.TriggerWelcome, model.TriggerRenewalSuccess:
			// Matching predicates for these trigger kinds are not defined yet.
			log.Println("⚠️ skipping automation rule with unimplemented trigger:", rule.TriggerType)
		default:
			log.Println("⚠️ skipping automation rule with unknown trigger:", rule.TriggerType)
		}

		if err := s.RuleRepo.UpdateLastRun(rule.ID, s.now()); err != nil {
			log.Println("⚠️ failed to update last_run_at for rule", rule.ID, ":", err)
		}
	}

	return processed, nil
}

// processExpiryRule warns schools whose subscription ends exactly
// trigger_days_before days from today. Sends run on a bounded worker pool;
// per-school errors are logged and counted as not processed.
func (s *AutomationService) processExpiryRule(ctx context.Context, rule *model.AutomationRule) int {
	days := defaultExpiryWarningDays
	if rule.TriggerDaysBefore != nil {
		days = *rule.TriggerDaysBefore
	}
	targetDate := s.now().AddDate(0, 0, days)

	schools, err := s.SchoolRepo.ListExpiringOn(targetDate)
	if err != nil {
		log.Println("⚠️ failed to query expiring schools for rule", rule.ID, ":", err)
		return 0
	}
	if len(schools) == 0 {
		return 0
	}

	workers := s.Workers
	if workers < 1 {
		workers = 4
	}
	if workers > len(schools) {
		workers = len(schools)
	}

	jobs := make(chan model.School)
	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for school := range jobs {
				if err := s.sendExpiryWarning(ctx, rule, school, days); err != nil {
					log.Println("⚠️ failed to send expiry warning to school", school.ID, ":", err)
					continue
				}
				mu.Lock()
				sent++
				mu.Unlock()
			}
		}()
	}

	for _, school := range schools {
		jobs <- school
	}
	close(jobs)
	wg.Wait()

	return sent
}

func (s *AutomationService) sendExpiryWarning(ctx context.Context, rule *model.AutomationRule, school model.School, days int) error {
	expiry := ""
	if school.SubscriptionEnd != nil {
		expiry = school.SubscriptionEnd.Format("2006-01-02")
	}

	templateID := rule.TemplateID
	req := SendRequest{
		MessageType: model.MessageTypeEmail,
		TemplateID:  &templateID,
		Recipients: recipient.Spec{
			ExternalEmails: []recipient.ExternalEmail{
				{Email: school.ContactEmail, Name: school.Name},
			},
		},
		Variables: map[string]string{
			"school_name":       school.Name,
			"days_until_expiry": strconv.Itoa(days),
			"expiry_date":       expiry,
			"package_type":      school.PackageType,
		},
	}

	// Automated sends run with system-level visibility.
	caller := recipient.CallerContext{Role: recipient.RoleDSVIAdmin}

	result, err := s.Messages.SendMessage(ctx, req, caller)
	if err != nil {
		return err
	}
	if result.Status == SendStatusFailed {
		return &sendFailedError{errors: result.Errors}
	}
	return nil
}

type sendFailedError struct {
	errors []string
}

func (e *sendFailedError) Error() string {
	if len(e.errors) > 0 {
		return "send failed: " + e.errors[0]
	}
	return "send failed"
}

func (s *AutomationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
