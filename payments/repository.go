package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados de pagamentos
type Repository interface {
	// Create insere um pagamento pendente
	Create(ctx context.Context, payment *Payment) error

	// SetExternalID guarda a referência retornada pelo provedor
	SetExternalID(ctx context.Context, paymentID int64, externalID string) error

	// MarkPaid marca o pagamento como pago
	MarkPaid(ctx context.Context, paymentID int64) error

	// MarkPaidByOrder marca como pagas as tentativas pendentes do pedido
	MarkPaidByOrder(ctx context.Context, orderID int64) error

	// LatestByOrder retorna a tentativa de pagamento mais recente do pedido
	LatestByOrder(ctx context.Context, orderID int64) (*Payment, error)
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository cria uma nova instância de PostgresRepository
func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, payment *Payment) error {
	payment.Status = StatusPending
	return r.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, user_id, amount, wallet_address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, payment.OrderID, payment.UserID, payment.Amount, payment.WalletAddress, StatusPending).
		Scan(&payment.ID, &payment.CreatedAt)
}

func (r *PostgresRepository) SetExternalID(ctx context.Context, paymentID int64, externalID string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE payments SET external_payment_id = $1 WHERE id = $2", externalID, paymentID)
	return err
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, paymentID int64) error {
	_, err := r.db.Exec(ctx,
		"UPDATE payments SET status = $1 WHERE id = $2", StatusPaid, paymentID)
	return err
}

func (r *PostgresRepository) MarkPaidByOrder(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx,
		"UPDATE payments SET status = $1 WHERE order_id = $2 AND status = $3",
		StatusPaid, orderID, StatusPending)
	return err
}

func (r *PostgresRepository) LatestByOrder(ctx context.Context, orderID int64) (*Payment, error) {
	var p Payment
	err := r.db.QueryRow(ctx, `
		SELECT id, order_id, user_id, amount, wallet_address, status, external_payment_id, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID).Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.WalletAddress,
		&p.Status, &p.ExternalPaymentID, &p.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
