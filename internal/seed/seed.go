package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userSeed struct {
	Email    string
	Password string
	Name     string
	Role     string
}

type productSeed struct {
	ID          string
	Kind        string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	Images      string
	Attributes  string
}

// Apply inserts demo accounts and products for manual testing. It is
// idempotent: users upsert on email, products on their fixed ids.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	users := []userSeed{
		{Email: "admin@partsmarket.local", Password: "admin1234", Name: "Admin", Role: "admin"},
		{Email: "provider@partsmarket.local", Password: "provider1234", Name: "Demo Garage", Role: "provider"},
		{Email: "client@partsmarket.local", Password: "client1234", Name: "Demo Client", Role: "client"},
	}

	var providerID string
	for _, u := range users {
		id, err := upsertUser(ctx, pool, u)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Email, err)
		}
		if u.Role == "provider" {
			providerID = id
		}
	}

	products := []productSeed{
		{
			ID:          "6b1f8d54-1111-4a60-9d5a-000000000001",
			Kind:        "vehicle",
			Name:        "2014 Hilux 2.5 TD",
			Description: "Single-cab pickup, runs, front end damage",
			PriceCents:  850000,
			Stock:       1,
			Images:      `["https://img.partsmarket.local/hilux-front.jpg"]`,
			Attributes:  `{"year": 2014, "mileageKm": 182000, "fuel": "diesel"}`,
		},
		{
			ID:          "6b1f8d54-1111-4a60-9d5a-000000000002",
			Kind:        "vehicle",
			Name:        "2009 Corolla XLI",
			Description: "Sedan for parts, engine seized",
			PriceCents:  120000,
			Stock:       1,
			Images:      `[]`,
			Attributes:  `{"year": 2009, "fuel": "petrol"}`,
		},
		{
			ID:          "6b1f8d54-2222-4a60-9d5a-000000000001",
			Kind:        "part",
			Name:        "Alternator 12V 90A",
			Description: "Tested pull, fits 1ZZ-FE",
			PriceCents:  6500,
			Stock:       5,
			Images:      `["https://img.partsmarket.local/alt-90a.jpg"]`,
			Attributes:  `{"condition": "used", "warrantyDays": 30}`,
		},
		{
			ID:          "6b1f8d54-2222-4a60-9d5a-000000000002",
			Kind:        "part",
			Name:        "Brake caliper front left",
			Description: "OEM, cleaned and bled",
			PriceCents:  3800,
			Stock:       12,
			Images:      `[]`,
			Attributes:  `{"condition": "used"}`,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, providerID, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func upsertUser(ctx context.Context, pool *pgxpool.Pool, u userSeed) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	const q = `
INSERT INTO users (email, password_hash, name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, u.Email, string(hash), u.Name, u.Role).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, providerID string, p productSeed) error {
	const q = `
INSERT INTO products (id, kind, name, description, price_cents, stock, provider_id, images, attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock,
    images = EXCLUDED.images,
    attributes = EXCLUDED.attributes
`
	_, err := pool.Exec(ctx, q, p.ID, p.Kind, p.Name, p.Description, p.PriceCents, p.Stock, providerID, p.Images, p.Attributes)
	return err
}
