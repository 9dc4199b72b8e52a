package entity

// Status constants for Engagement
const (
	StatusUnderProcess    = "UNDER_PROCESS"
	StatusUnderReview     = "UNDER_REVIEW"
	StatusReviewCompleted = "REVIEW_COMPLETED"
	StatusCompleted       = "COMPLETED"
	StatusCancelled       = "CANCELLED"
)

// History action types recorded outside of workflow transitions
const (
	HistoryActionCreate        = "CREATE"
	HistoryActionUpdateDetails = "UPDATE_DETAILS"
)

// Financial evaluation classifications offered by the intake form
const (
	FinancialEvaluationLow    = "LOW"
	FinancialEvaluationMedium = "MEDIUM"
	FinancialEvaluationHigh   = "HIGH"
)

// Initial payment status values
const (
	PaymentPending  = "PENDING"
	PaymentReceived = "RECEIVED"
	PaymentWaived   = "WAIVED"
)
