package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados do catálogo
type Repository interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository cria uma nova instância de PostgresRepository
func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, price, stock, image_url, category_id, created_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CategoryID, &p.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, price, stock, image_url, category_id, created_at
		FROM products ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresRepository) ListProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, price, stock, image_url, category_id, created_at
		FROM products WHERE category_id = $1 ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CategoryID, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *Product) error {
	if p.CategoryID != nil {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)", *p.CategoryID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return ErrCategoryNotFound
		}
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock, image_url, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.CategoryID).Scan(&p.ID, &p.CreatedAt)
}

func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, "SELECT id, name, description, image_url FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO categories (name, description, image_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.Name, c.Description, c.ImageURL).Scan(&c.ID)
}

// DeleteCategory remove uma categoria, desde que nenhum produto a referencie
func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE category_id = $1", id).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	_, err = r.db.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	return err
}
