package catalog

type CreateProductRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Category       string `json:"category" validate:"required,max=100"`
	Manufacturer   string `json:"manufacturer" validate:"required,max=100"`
	BuyPrice       string `json:"buy_price" validate:"required"`
	WholesalePrice string `json:"wholesale_price,omitempty"`
	RetailPrice    string `json:"retail_price" validate:"required"`
	StockLevel     int    `json:"stock_level" validate:"gte=0"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

type UpdateProductRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,max=200"`
	BuyPrice       *string `json:"buy_price,omitempty"`
	WholesalePrice *string `json:"wholesale_price,omitempty"`
	RetailPrice    *string `json:"retail_price,omitempty"`
	StockLevel     *int    `json:"stock_level,omitempty" validate:"omitempty,gte=0"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
}

type ListProductsRequest struct {
	Category     string `json:"category,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Search       string `json:"search,omitempty"`
	InStockOnly  bool   `json:"in_stock_only,omitempty"`
	Limit        int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int    `json:"offset" validate:"gte=0"`
}
