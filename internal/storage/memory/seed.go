package memory

import (
	"github.com/shopspring/decimal"

	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/domain/table"
)

// SeedProducts returns the starter CharlyHot menu.
func SeedProducts() []product.Product {
	return []product.Product{
		{
			ID:          "prod001",
			Name:        "Hamburguesa Clásica",
			Description: "Carne de res, lechuga, tomate, queso y salsa especial.",
			Price:       decimal.RequireFromString("15.00"),
			Category:    "Hamburguesas",
		},
		{
			ID:          "prod002",
			Name:        "Papas Fritas Medianas",
			Description: "Porción mediana de papas fritas crujientes.",
			Price:       decimal.RequireFromString("7.50"),
			Category:    "Acompañamientos",
		},
		{
			ID:          "prod003",
			Name:        "Gaseosa Grande",
			Description: "Vaso grande de tu gaseosa preferida.",
			Price:       decimal.RequireFromString("5.00"),
			Category:    "Bebidas",
		},
		{
			ID:          "prod004",
			Name:        "Pizza Personal",
			Description: "Pizza individual con tus ingredientes favoritos.",
			Price:       decimal.RequireFromString("20.00"),
			Category:    "Pizzas",
		},
	}
}

// SeedTables returns tables numbered 1..n, all free.
func SeedTables(n int) []table.Table {
	n = max(n, 0)
	tables := make([]table.Table, n)
	for i := range tables {
		tables[i] = table.Table{Number: i + 1, Status: table.StatusFree}
	}
	return tables
}
