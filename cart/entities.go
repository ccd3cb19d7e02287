package cart

import "time"

// CartLine representa uma linha (produto, quantidade) do carrinho de uma sessão
type CartLine struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}
