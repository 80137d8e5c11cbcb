// Package catalog is the static, read-only product list of the store.
package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-checkout-demo/internal/model"
)

// AllCategories is the pseudo-category that disables the category filter.
const AllCategories = "Todo"

const (
	SortRelevance = "rel"
	SortPriceAsc  = "asc"
	SortPriceDesc = "desc"
	SortOnSale    = "off"
)

// prices are MXN
var products = []model.Product{
	{ID: "p-101", Title: "Laptop 15\" Ryzen 7", Price: decimal.NewFromInt(18999), Category: "Cómputo", Image: "https://images.unsplash.com/photo-1517336714731-489689fd1ca8", Discount: 10},
	{ID: "p-102", Title: "Laptop Ultrabook i5 13\"", Price: decimal.NewFromInt(14999), Category: "Cómputo", Image: "https://images.unsplash.com/photo-1517336714731-489689fd1ca8"},
	{ID: "p-103", Title: "SSD NVMe 1TB Gen4", Price: decimal.NewFromInt(1399), Category: "Cómputo", Image: "https://images.unsplash.com/photo-1542751110-97427bbecf20"},
	{ID: "p-104", Title: "Teclado Mecánico RGB", Price: decimal.NewFromInt(899), Category: "Cómputo", Image: "https://images.unsplash.com/photo-1517502166878-35c93a0072a7"},
	{ID: "p-105", Title: "Mouse Gamer 8K", Price: decimal.NewFromInt(599), Category: "Cómputo", Image: "https://images.unsplash.com/photo-1517336714731-489689fd1ca8"},
	{ID: "p-201", Title: "Nintendo Switch OLED", Price: decimal.NewFromInt(6999), Category: "Gaming", Image: "https://images.unsplash.com/photo-1550745165-9bc0b252726f", Discount: 5},
	{ID: "p-202", Title: "Control Xbox Wireless", Price: decimal.NewFromInt(1299), Category: "Gaming", Image: "https://images.unsplash.com/photo-1542751110-97427bbecf20"},
	{ID: "p-203", Title: "Silla Gamer Ergonómica", Price: decimal.NewFromInt(2599), Category: "Gaming", Image: "https://images.unsplash.com/photo-1597784087572-4f2c0c7c3c15"},
	{ID: "p-204", Title: "Monitor 27\" 144Hz", Price: decimal.NewFromInt(4299), Category: "Gaming", Image: "https://images.unsplash.com/photo-1517059224940-d4af9eec41e5"},
	{ID: "p-301", Title: "Audífonos Bluetooth ANC", Price: decimal.NewFromInt(1299), Category: "Audio", Image: "https://images.unsplash.com/photo-1518441902110-5815b1fd70a6"},
	{ID: "p-302", Title: "Barra de Sonido 2.1", Price: decimal.NewFromInt(1899), Category: "Audio", Image: "https://images.unsplash.com/photo-1546435770-a3e426bf472b"},
	{ID: "p-303", Title: "Micrófono USB Pro", Price: decimal.NewFromInt(1499), Category: "Audio", Image: "https://images.unsplash.com/photo-1512273222628-4daea6e55abb"},
	{ID: "p-304", Title: "Bocina Portátil IPX7", Price: decimal.NewFromInt(999), Category: "Audio", Image: "https://images.unsplash.com/photo-1518441902110-5815b1fd70a6", Discount: 15},
	{ID: "p-401", Title: "Aspiradora Robot Smart", Price: decimal.NewFromInt(4999), Category: "Hogar", Image: "https://images.unsplash.com/photo-1560185008-b033106af2cf"},
	{ID: "p-402", Title: "Cámara WiFi 1080p", Price: decimal.NewFromInt(549), Category: "Hogar", Image: "https://images.unsplash.com/photo-1557324232-b8917d3c3dcb"},
	{ID: "p-403", Title: "Tira LED RGB 5m", Price: decimal.NewFromInt(299), Category: "Hogar", Image: "https://images.unsplash.com/photo-1545235617-9465d2a55698"},
	{ID: "p-501", Title: "Smartphone 6.7\" 256GB", Price: decimal.NewFromInt(12999), Category: "Móviles", Image: "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9"},
	{ID: "p-502", Title: "Cargador 65W GaN", Price: decimal.NewFromInt(499), Category: "Móviles", Image: "https://images.unsplash.com/photo-1518779578993-ec3579fee39f"},
	{ID: "p-503", Title: "Smartwatch AMOLED", Price: decimal.NewFromInt(1899), Category: "Wearables", Image: "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9"},
	{ID: "p-504", Title: "True Wireless Earbuds", Price: decimal.NewFromInt(899), Category: "Wearables", Image: "https://images.unsplash.com/photo-1518441902110-5815b1fd70a6"},
	{ID: "p-601", Title: "Mochila Antirrobo 15\"", Price: decimal.NewFromInt(699), Category: "Accesorios", Image: "https://images.unsplash.com/photo-1520975954732-35dd222996f6"},
	{ID: "p-602", Title: "Hub USB-C 8 en 1", Price: decimal.NewFromInt(749), Category: "Accesorios", Image: "https://images.unsplash.com/photo-1518779578993-ec3579fee39f"},
	{ID: "p-603", Title: "Webcam 1080p", Price: decimal.NewFromInt(649), Category: "Accesorios", Image: "https://images.unsplash.com/photo-1517059224940-d4af9eec41e5"},
	{ID: "p-604", Title: "Base Enfriadora Laptop", Price: decimal.NewFromInt(399), Category: "Accesorios", Image: "https://images.unsplash.com/photo-1517336714731-489689fd1ca8"},
}

type Catalog struct {
	products []model.Product
	byID     map[string]int
}

func New() *Catalog {
	return NewWithProducts(products)
}

func NewWithProducts(list []model.Product) *Catalog {
	c := &Catalog{
		products: slices.Clone(list),
		byID:     make(map[string]int, len(list)),
	}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

func (c *Catalog) Get(id string) (model.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return c.products[i], true
}

// Categories lists AllCategories followed by each category in catalog order.
func (c *Catalog) Categories() []string {
	out := []string{AllCategories}
	for _, p := range c.products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

type Query struct {
	Category string
	Search   string
	Sort     string
}

// Filter applies category, then a case-insensitive title search, then the
// sort mode. Unknown sort modes keep catalog order.
func (c *Catalog) Filter(q Query) []model.Product {
	out := make([]model.Product, 0, len(c.products))
	term := strings.ToLower(strings.TrimSpace(q.Search))

	for _, p := range c.products {
		if q.Category != "" && q.Category != AllCategories && p.Category != q.Category {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Title), term) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b model.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b model.Product) int { return b.Price.Cmp(a.Price) })
	case SortOnSale:
		out = slices.DeleteFunc(out, func(p model.Product) bool { return p.Discount == 0 })
	}
	return out
}
