package cart

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados do carrinho
type Repository interface {
	// GetLines retorna todas as linhas do carrinho de uma sessão
	GetLines(ctx context.Context, sessionID string) ([]CartLine, error)

	// Add insere uma linha ou incrementa a quantidade se o produto já estiver no carrinho
	Add(ctx context.Context, line *CartLine) error

	// Remove remove um produto do carrinho da sessão
	Remove(ctx context.Context, sessionID string, productID int64) error

	// Clear esvazia o carrinho da sessão
	Clear(ctx context.Context, sessionID string) error
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository cria uma nova instância de PostgresRepository
func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetLines(ctx context.Context, sessionID string) ([]CartLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, product_id, quantity, added_at
		FROM cart_items WHERE session_id = $1 ORDER BY added_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []CartLine{}
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ID, &l.SessionID, &l.ProductID, &l.Quantity, &l.AddedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Add faz upsert: o par (session_id, product_id) é único, duplicatas incrementam a quantidade
func (r *PostgresRepository) Add(ctx context.Context, line *CartLine) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO cart_items (session_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, added_at
	`, line.SessionID, line.ProductID, line.Quantity).Scan(&line.ID, &line.Quantity, &line.AddedAt)
}

func (r *PostgresRepository) Remove(ctx context.Context, sessionID string, productID int64) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM cart_items WHERE session_id = $1 AND product_id = $2", sessionID, productID)
	return err
}

func (r *PostgresRepository) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM cart_items WHERE session_id = $1", sessionID)
	return err
}
