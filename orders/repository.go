package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados de pedidos.
// As mudanças de status usam updates condicionais: o WHERE carrega o estado
// esperado e zero linhas afetadas significa que outro caminho concorrente
// já processou a transição.
type Repository interface {
	// CreateOrder insere o pedido, seus itens e limpa o carrinho da sessão
	// em uma única transação.
	CreateOrder(ctx context.Context, order *Order, items []OrderItem, sessionID string) error

	GetOrder(ctx context.Context, orderID int64) (*Order, error)

	// ItemSummaries retorna as linhas do pedido com o nome atual do produto
	ItemSummaries(ctx context.Context, orderID int64) ([]ItemSummary, error)

	// MarkPaid faz a transição condicional pending -> paid
	MarkPaid(ctx context.Context, orderID int64) error

	// Complete faz a transição condicional paid -> completed e encerra o diálogo
	Complete(ctx context.Context, orderID int64) error

	// Cancel cancela o pedido, exceto quando já completed ou cancelled
	Cancel(ctx context.Context, orderID int64) error

	// SetAdminMessage guarda a referência da mensagem enviada ao canal de administração
	SetAdminMessage(ctx context.Context, orderID int64, messageID int64) error

	// ActiveOrderByUser retorna o pedido mais recente do usuário com diálogo aberto
	ActiveOrderByUser(ctx context.Context, userID int64) (*Order, error)

	// OrderByAdminMessage correlaciona uma resposta do administrador ao pedido
	OrderByAdminMessage(ctx context.Context, messageID int64) (*Order, error)
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository cria uma nova instância de PostgresRepository
func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, user_id, total_amount, status, payment_status, delivery_address,
	dialog_active, admin_message_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.DeliveryAddress, &o.DialogActive, &o.AdminMessageID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder aplica pedido + itens + limpeza do carrinho como uma unidade
// atômica: uma falha no meio não pode deixar carrinho vazio sem pedido, nem
// pedido sem itens.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *Order, items []OrderItem, sessionID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_amount, status, payment_status, delivery_address, dialog_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, created_at, updated_at
	`, order.UserID, order.TotalAmount, StatusPending, PaymentStatusPending, order.DeliveryAddress).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	order.Status = StatusPending
	order.PaymentStatus = PaymentStatusPending
	order.DialogActive = true

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_order)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, order.ID, items[i].ProductID, items[i].Quantity, items[i].PriceAtOrder).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM cart_items WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	row := r.db.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", orderID)
	return scanOrder(row)
}

func (r *PostgresRepository) ItemSummaries(ctx context.Context, orderID int64) ([]ItemSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.name, oi.quantity
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ItemSummary
	for rows.Next() {
		var s ItemSummary
		if err := rows.Scan(&s.Name, &s.Quantity); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, orderID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, StatusPaid, PaymentStatusPaid, orderID, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *PostgresRepository) Complete(ctx context.Context, orderID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, dialog_active = FALSE, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, StatusCompleted, orderID, StatusPaid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *PostgresRepository) Cancel(ctx context.Context, orderID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ($3, $4)
	`, StatusCancelled, orderID, StatusCompleted, StatusCancelled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *PostgresRepository) SetAdminMessage(ctx context.Context, orderID int64, messageID int64) error {
	_, err := r.db.Exec(ctx,
		"UPDATE orders SET admin_message_id = $1, updated_at = NOW() WHERE id = $2", messageID, orderID)
	return err
}

func (r *PostgresRepository) ActiveOrderByUser(ctx context.Context, userID int64) (*Order, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1 AND dialog_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)
	return scanOrder(row)
}

func (r *PostgresRepository) OrderByAdminMessage(ctx context.Context, messageID int64) (*Order, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE admin_message_id = $1", messageID)
	return scanOrder(row)
}
