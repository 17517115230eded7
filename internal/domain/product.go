package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProductKind is the runtime tag of the Vehicle | Part union. It is parsed
// once where it enters the system (request binding); everything below the
// boundary carries the typed value.
type ProductKind string

const (
	KindVehicle ProductKind = "vehicle"
	KindPart    ProductKind = "part"
)

// ParseProductKind validates a kind discriminator coming from a request.
func ParseProductKind(raw string) (ProductKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(KindVehicle):
		return KindVehicle, nil
	case string(KindPart):
		return KindPart, nil
	default:
		return "", fmt.Errorf("unknown product kind %q", raw)
	}
}

func (k ProductKind) String() string { return string(k) }

// Product is a sellable item: a vehicle or a compatible part. Kind-specific
// fields (vehicle model/year, part compatibility) live in Attributes.
type Product struct {
	ID          string                 `json:"id"`
	Kind        ProductKind            `json:"kind"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	PriceCents  int64                  `json:"priceCents"`
	Stock       int                    `json:"stock"`
	ProviderID  string                 `json:"providerId"`
	Images      []string               `json:"images,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// FirstImage returns the image snapshotted onto order lines.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
