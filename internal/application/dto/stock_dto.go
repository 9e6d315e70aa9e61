package dto

// StockResponse unidades disponibles de un producto.
type StockResponse struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
}
