package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ETransferInstructions tells a participant how to pay for a submission
type ETransferInstructions struct {
	Email             string
	Name              string
	Amount            decimal.Decimal
	CertificateNumber string
}

// PaymentApproved confirms a verified submission
type PaymentApproved struct {
	Email             string
	Name              string
	Amount            decimal.Decimal
	Points            int
	CertificateNumber string
}

// Notifier delivers participant emails. Delivery is best effort: callers log
// failures and never undo the ledger change that triggered them.
type Notifier interface {
	SendETransferInstructions(ctx context.Context, msg ETransferInstructions) error
	SendPaymentApproved(ctx context.Context, msg PaymentApproved) error
}

// LogNotifier writes notifications to the log instead of sending mail
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendETransferInstructions(_ context.Context, msg ETransferInstructions) error {
	n.logger.Info("e-transfer instructions",
		zap.String("email", msg.Email),
		zap.String("name", msg.Name),
		zap.String("amount", msg.Amount.StringFixed(2)),
		zap.String("certificate_number", msg.CertificateNumber),
	)
	return nil
}

func (n *LogNotifier) SendPaymentApproved(_ context.Context, msg PaymentApproved) error {
	n.logger.Info("payment approved",
		zap.String("email", msg.Email),
		zap.String("name", msg.Name),
		zap.String("amount", msg.Amount.StringFixed(2)),
		zap.Int("points", msg.Points),
		zap.String("certificate_number", msg.CertificateNumber),
	)
	return nil
}
