package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/pkg/utils"
)

// DateLayout is the wire format of engagement dates
const DateLayout = "2006-01-02"

// EngagementInput carries the business fields of an engagement.
// Status and remarks are never set through it.
type EngagementInput struct {
	Reference string `json:"reference"`

	ClientName    string `json:"client_name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`

	ServiceType string  `json:"service_type"`
	ScopeOfWork string  `json:"scope_of_work"`
	Amount      float64 `json:"amount"`

	ConsultantName  string `json:"consultant_name"`
	ConsultantPhone string `json:"consultant_phone"`
	ConsultantType  string `json:"consultant_type"`

	Standards         []string `json:"standards"`
	Surveillance      string   `json:"surveillance"`
	AccreditationCode string   `json:"accreditation_code"`

	FinancialEvaluation string `json:"financial_evaluation"`
	InitialPayment      string `json:"initial_payment"`

	StartDate  string `json:"start_date"`
	TargetDate string `json:"target_date"`
}

var (
	financialEvaluations = map[string]bool{
		entity.FinancialEvaluationLow:    true,
		entity.FinancialEvaluationMedium: true,
		entity.FinancialEvaluationHigh:   true,
	}
	paymentStatuses = map[string]bool{
		entity.PaymentPending:  true,
		entity.PaymentReceived: true,
		entity.PaymentWaived:   true,
	}
)

// applyTo validates the input and copies it onto e. e is left untouched on error.
func (in EngagementInput) applyTo(e *entity.Engagement) error {
	clean := func(s string) string { return strings.TrimSpace(utils.SanitizeString(s)) }

	out := e.Clone()
	out.ClientName = clean(in.ClientName)
	out.ContactPerson = clean(in.ContactPerson)
	out.Phone = clean(in.Phone)
	out.Email = clean(in.Email)
	out.ServiceType = clean(in.ServiceType)
	out.ScopeOfWork = strings.TrimSpace(utils.SanitizeString(in.ScopeOfWork))
	out.Amount = in.Amount
	out.ConsultantName = clean(in.ConsultantName)
	out.ConsultantPhone = clean(in.ConsultantPhone)
	out.ConsultantType = clean(in.ConsultantType)
	out.Standards = normalizeStandards(in.Standards)
	out.Surveillance = clean(in.Surveillance)
	out.AccreditationCode = clean(in.AccreditationCode)
	out.FinancialEvaluation = strings.ToUpper(clean(in.FinancialEvaluation))
	out.InitialPayment = strings.ToUpper(clean(in.InitialPayment))

	var problems []string
	if out.ClientName == "" {
		problems = append(problems, "client_name is required")
	}
	if out.Email != "" {
		if err := utils.ValidateEmail(out.Email); err != nil {
			problems = append(problems, err.Error())
		}
	}
	for _, phone := range []string{out.Phone, out.ConsultantPhone} {
		if phone == "" {
			continue
		}
		if err := utils.ValidatePhone(phone); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if err := utils.ValidateAmount(out.Amount); err != nil {
		problems = append(problems, err.Error())
	}
	if out.FinancialEvaluation != "" && !financialEvaluations[out.FinancialEvaluation] {
		problems = append(problems, fmt.Sprintf("unknown financial_evaluation %q", out.FinancialEvaluation))
	}
	if out.InitialPayment != "" && !paymentStatuses[out.InitialPayment] {
		problems = append(problems, fmt.Sprintf("unknown initial_payment %q", out.InitialPayment))
	}

	var err error
	if out.StartDate, err = parseDate(in.StartDate); err != nil {
		problems = append(problems, "start_date: "+err.Error())
	}
	if out.TargetDate, err = parseDate(in.TargetDate); err != nil {
		problems = append(problems, "target_date: "+err.Error())
	}
	if out.StartDate != nil && out.TargetDate != nil && out.TargetDate.Before(*out.StartDate) {
		problems = append(problems, "target_date is before start_date")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEngagement, strings.Join(problems, "; "))
	}

	*e = out
	return nil
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", value)
	}
	return &t, nil
}

// normalizeStandards keeps selection order, dropping blanks and repeats
func normalizeStandards(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
