package domain

// TransactionStatus is the outcome reported by the payment processor.
// Values outside the known set are carried through verbatim so callers can reject them.
type TransactionStatus string

const (
	TransactionAccepted TransactionStatus = "accepted"
	TransactionPending  TransactionStatus = "pending"
	TransactionDeclined TransactionStatus = "declined"
	TransactionFailed   TransactionStatus = "failed"
)

// TransactionResult is the outcome of an authorize or capture call.
type TransactionResult struct {
	Status        TransactionStatus
	TransactionID string
	// Amount is the processor-assigned amount, if reported.
	Amount *Money
	// Raw is the undecoded processor response, kept for error context.
	Raw string
}

// RefundConfirmation is returned by the processor when it accepts a refund.
type RefundConfirmation struct {
	RefundID string
	// ConvertedAmount may differ from the requested amount after currency conversion.
	ConvertedAmount Money
}

// RefundMode selects how a refund is recorded.
type RefundMode string

const (
	// RefundModeManual records the refund in the ledger only, without calling the processor.
	RefundModeManual RefundMode = "manual"
	// RefundModeGateway asks the processor to return the funds.
	RefundModeGateway RefundMode = "gateway"
)

// RefundRequest asks for part or all of an order's captured funds to be returned.
type RefundRequest struct {
	Amount Money
	Reason string
	Mode   RefundMode
}

// RefundOutcome describes the result of a refund attempt.
type RefundOutcome struct {
	Succeeded     bool
	Mode          RefundMode
	Amount        Money
	TotalRefunded Money
	RefundID      string
	// ProcessorAmount is the amount echoed by the processor for gateway refunds.
	ProcessorAmount *Money
	// AmountMismatch is set when ProcessorAmount differs from Amount.
	AmountMismatch bool
	FailureReason  string
}
