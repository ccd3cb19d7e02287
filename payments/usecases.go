package payments

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
)

// UseCase contém a lógica de negócio de pagamentos
type UseCase struct {
	repository Repository
	gateway    Gateway
	wallet     string
}

// NewUseCase cria uma nova instância de UseCase
func NewUseCase(repository Repository, gateway Gateway, wallet string) *UseCase {
	return &UseCase{
		repository: repository,
		gateway:    gateway,
		wallet:     wallet,
	}
}

// CreatePayment registra uma tentativa de pagamento e cria o invoice no provedor.
// O registro local vem ANTES da chamada externa: se o provedor falhar depois,
// sobra uma linha pendente rastreável que o chamador pode reaproveitar num retry.
func (uc *UseCase) CreatePayment(ctx context.Context, userID, orderID int64, amount decimal.Decimal) (*Payment, string, error) {
	log.Printf("➡️ [CREATE PAYMENT] OrderID: %d | UserID: %d | Amount: %s", orderID, userID, amount)

	if !amount.IsPositive() {
		return nil, "", ErrInvalidAmount
	}

	payment := &Payment{
		OrderID:       orderID,
		UserID:        userID,
		Amount:        amount,
		WalletAddress: uc.wallet,
	}
	if err := uc.repository.Create(ctx, payment); err != nil {
		return nil, "", err
	}

	invoice, err := uc.gateway.CreateInvoice(ctx, orderID, amount)
	if err != nil {
		// A linha fica pendente de propósito: a criação é segura de repetir.
		log.Printf("❌ CREATE PAYMENT FAILED: provider error | PaymentID: %d | %v", payment.ID, err)
		return nil, "", err
	}

	if err := uc.repository.SetExternalID(ctx, payment.ID, invoice.PaymentID); err != nil {
		return nil, "", err
	}
	payment.ExternalPaymentID = &invoice.PaymentID

	log.Printf("✅ Payment created: %d | Provider ref: %s", payment.ID, invoice.PaymentID)
	return payment, invoice.PaymentURL, nil
}

// VerifyPayment consulta o status no provedor. Retorna true quando pago;
// "ainda não pago" não é erro.
func (uc *UseCase) VerifyPayment(ctx context.Context, orderID int64) (bool, error) {
	payment, err := uc.repository.LatestByOrder(ctx, orderID)
	if err != nil {
		return false, err
	}

	// Idempotente: já registrado como pago
	if payment.Status == StatusPaid {
		return true, nil
	}

	if payment.ExternalPaymentID == nil {
		return false, ErrVerificationFailed
	}

	status, err := uc.gateway.PaymentStatus(ctx, *payment.ExternalPaymentID)
	if err != nil {
		return false, err
	}
	if status != StatusPaid {
		return false, nil
	}

	if err := uc.repository.MarkPaid(ctx, payment.ID); err != nil {
		return false, err
	}
	log.Printf("✅ Payment verified as paid: %d | OrderID: %d", payment.ID, orderID)
	return true, nil
}

// RecordExternalConfirmation marca as tentativas pendentes do pedido como pagas
// quando a confirmação chega pelo webhook em vez da consulta de status.
func (uc *UseCase) RecordExternalConfirmation(ctx context.Context, orderID int64) error {
	return uc.repository.MarkPaidByOrder(ctx, orderID)
}
