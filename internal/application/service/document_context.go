package service

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/merge"
)

// Merge tokens supplied from an engagement record
const (
	TokenClientName          = "clientName"
	TokenReferenceNumber     = "referenceNumber"
	TokenStartDate           = "startDate"
	TokenTargetDate          = "targetDate"
	TokenContactPerson       = "contactPerson"
	TokenPhone               = "phone"
	TokenEmail               = "email"
	TokenAmount              = "amount"
	TokenServiceType         = "serviceType"
	TokenScopeOfWork         = "scopeOfWork"
	TokenConsultantName      = "consultantName"
	TokenConsultantPhone     = "consultantPhone"
	TokenConsultantType      = "consultantType"
	TokenStandards           = "standards"
	TokenSurveillance        = "surveillance"
	TokenAccreditationCode   = "accreditationCode"
	TokenFinancialEvaluation = "financialEvaluation"
	TokenInitialPayment      = "initialPayment"
	TokenRemarks             = "remarks"
	TokenStatus              = "status"
	TokenCurrentDate         = "currentDate"
)

// DocumentDateLayout is how dates appear in rendered documents
const DocumentDateLayout = "02 Jan 2006"

var recordTokens = []string{
	TokenClientName, TokenReferenceNumber, TokenStartDate, TokenTargetDate,
	TokenContactPerson, TokenPhone, TokenEmail, TokenAmount,
	TokenServiceType, TokenScopeOfWork, TokenConsultantName, TokenConsultantPhone,
	TokenConsultantType, TokenStandards, TokenSurveillance, TokenAccreditationCode,
	TokenFinancialEvaluation, TokenInitialPayment, TokenRemarks, TokenStatus,
	TokenCurrentDate,
}

var statusLabels = map[string]string{
	entity.StatusUnderProcess:    "Under Process",
	entity.StatusUnderReview:     "Under Review",
	entity.StatusReviewCompleted: "Review Completed",
	entity.StatusCompleted:       "Completed",
	entity.StatusCancelled:       "Cancelled",
}

var amountPrinter = message.NewPrinter(language.English)

// RecordTokens returns the tokens every engagement supplies, in display order
func RecordTokens() []string {
	return append([]string(nil), recordTokens...)
}

// BuildMergeContext maps an engagement onto merge tokens. now supplies currentDate.
func BuildMergeContext(e *entity.Engagement, now time.Time) merge.Context {
	ctx := merge.NewContext().
		Set(TokenClientName, e.ClientName).
		Set(TokenReferenceNumber, e.Reference).
		Set(TokenStartDate, formatDate(e.StartDate)).
		Set(TokenTargetDate, formatDate(e.TargetDate)).
		Set(TokenContactPerson, e.ContactPerson).
		Set(TokenPhone, e.Phone).
		Set(TokenEmail, e.Email).
		Set(TokenAmount, FormatAmount(e.Amount)).
		Set(TokenServiceType, e.ServiceType).
		Set(TokenScopeOfWork, e.ScopeOfWork).
		Set(TokenConsultantName, e.ConsultantName).
		Set(TokenConsultantPhone, e.ConsultantPhone).
		Set(TokenConsultantType, e.ConsultantType).
		SetList(TokenStandards, e.Standards).
		Set(TokenSurveillance, e.Surveillance).
		Set(TokenAccreditationCode, e.AccreditationCode).
		Set(TokenFinancialEvaluation, e.FinancialEvaluation).
		Set(TokenInitialPayment, e.InitialPayment).
		Set(TokenRemarks, e.Remarks).
		Set(TokenStatus, StatusLabel(e.Status)).
		Set(TokenCurrentDate, now.Format(DocumentDateLayout))
	return ctx
}

// FormatAmount renders a fee with thousands separators and two decimals, e.g. 12,500.50
func FormatAmount(amount float64) string {
	return amountPrinter.Sprintf("%.2f", amount)
}

// StatusLabel returns the human label of a status, or the raw value when unknown
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DocumentDateLayout)
}
