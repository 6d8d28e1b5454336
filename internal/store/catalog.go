package store

import (
	"errors"
	"fmt"

	"tracer-store/internal/models"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a product id is not in the catalog
var ErrProductNotFound = errors.New("product not found")

// Catalog is the read-only product list, built once at startup
type Catalog struct {
	products []models.Product
	byID     map[string]int
}

// NewCatalog builds a catalog from products, keeping their order.
// Duplicate ids are rejected.
func NewCatalog(products []models.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]models.Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %q has negative price", p.ID)
		}
		c.products[i] = p
		c.byID[p.ID] = i
	}
	return c, nil
}

// DefaultCatalog returns the Tracer store catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(tracerProducts())
	if err != nil {
		panic(err)
	}
	return c
}

// GetProduct retrieves a product by ID
func (c *Catalog) GetProduct(id string) (models.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return c.products[i], nil
}

// GetProducts returns all products in catalog order
func (c *Catalog) GetProducts() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// GetProductsByCategory returns products of one category in catalog order
func (c *Catalog) GetProductsByCategory(category models.Category) []models.Product {
	var out []models.Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

func tracerProducts() []models.Product {
	return []models.Product{
		{
			ID:              "p1",
			Name:            "ATLAS Detector Blueprint Tee",
			Price:           decimal.RequireFromString("29.99"),
			Category:        models.CategoryApparel,
			Image:           "https://picsum.photos/id/1/400/400",
			Description:     "Premium heavy-cotton t-shirt featuring authentic wireframe blueprints of the ATLAS particle detector at CERN. Perfect for physicists and engineering students.",
			AIPromptContext: "A premium t-shirt showing the technical wireframe of the ATLAS particle detector at CERN.",
		},
		{
			ID:              "p2",
			Name:            "Particle Collision Hoodie",
			Price:           decimal.RequireFromString("49.99"),
			Category:        models.CategoryApparel,
			Image:           "https://picsum.photos/id/2/400/400",
			Description:     "Ultra-soft fleece hoodie displaying a high-resolution simulation of a Higgs Boson decay event. Inspired by Tracer Core 3D visualizations.",
			AIPromptContext: "A high-quality hoodie displaying a colorful high-energy particle collision event simulation.",
		},
		{
			ID:              "p3",
			Name:            "Tracer Thermo-Reactive Mug",
			Price:           decimal.RequireFromString("15.00"),
			Category:        models.CategoryAccessories,
			Image:           "https://picsum.photos/id/30/400/400",
			Description:     "Matte black ceramic mug with the Tracer script logo. Heat-reactive technology reveals hidden CERN particle tracks when filled with hot liquid.",
			AIPromptContext: "A ceramic coffee mug for physicists that reveals hidden particle tracks when hot liquid is poured in.",
		},
		{
			ID:              "p4",
			Name:            "Standard Model Laboratory Notebook",
			Price:           decimal.RequireFromString("12.50"),
			Category:        models.CategoryStationery,
			Image:           "https://picsum.photos/id/24/400/400",
			Description:     "Professional grade laboratory notebook containing the Standard Model of particle physics and universal constants. Essential for GTU science research.",
			AIPromptContext: "A laboratory notebook for students with the Standard Model of particle physics printed on the cover.",
		},
		{
			ID:              "p5",
			Name:            "LHC Tunnel 4K Panoramic Poster",
			Price:           decimal.RequireFromString("19.99"),
			Category:        models.CategoryAccessories,
			Image:           "https://picsum.photos/id/20/400/400",
			Description:     "High-definition panoramic print of the Large Hadron Collider (LHC) tunnel. A stunning addition to any nuclear engineering lab or academic workspace.",
			AIPromptContext: "A wide poster showing the futuristic tunnel of the Large Hadron Collider at CERN.",
		},
		{
			ID:              "p6",
			Name:            "GTU Engineering Precision Pen Set",
			Price:           decimal.RequireFromString("8.99"),
			Category:        models.CategoryStationery,
			Image:           "https://picsum.photos/id/6/400/400",
			Description:     "Set of three precision technical drawing pens featuring the Georgian Technical University crest. Optimized for drafting complex particle visualizations.",
			AIPromptContext: "A set of precision technical drawing pens used by engineering students at GTU.",
		},
	}
}
