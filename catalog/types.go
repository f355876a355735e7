package catalog

// Product is the raw product shape returned by the WooCommerce REST API.
// Prices arrive as strings and are only parsed during transformation.
type Product struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        string     `json:"price"`
	RegularPrice string     `json:"regular_price"`
	SalePrice    string     `json:"sale_price"`
	Images       []Image    `json:"images"`
	Permalink    string     `json:"permalink"`
	Status       string     `json:"status"`
	StockStatus  string     `json:"stock_status"`
	Categories   []Category `json:"categories"`
}

// Image is one product image reference.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Category is one product category reference.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
