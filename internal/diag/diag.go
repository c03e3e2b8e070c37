package diag

import (
	"context"
	"fmt"
	"strings"

	"motoverse/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionChecker reports the signed-in admin session, if any.
type SessionChecker interface {
	Session() models.Session
}

// GatewayProbe covers the database read and write checks.
type GatewayProbe interface {
	CountProducts(ctx context.Context) (int, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// StorageProbe checks object storage reachability.
type StorageProbe interface {
	Reachable(ctx context.Context) error
}

// CacheProbe checks the local durable cart storage.
type CacheProbe interface {
	Ping(ctx context.Context) error
}

// Runner produces the dashboard's self-test report.
type Runner struct {
	auth    SessionChecker
	gateway GatewayProbe
	storage StorageProbe
	cache   CacheProbe
}

// NewRunner wires the diagnostics probes.
func NewRunner(auth SessionChecker, gateway GatewayProbe, storage StorageProbe, cache CacheProbe) *Runner {
	return &Runner{auth: auth, gateway: gateway, storage: storage, cache: cache}
}

// Run executes each probe and renders a human-readable multi-line report.
// The write probe inserts a throwaway product and deletes it again, and is
// skipped when no admin session exists.
func (r *Runner) Run(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("Diagnostics Report:\n")

	session := r.auth.Session()
	if session.Valid() {
		fmt.Fprintf(&b, "1. Auth: Logged In (%s)\n", session.Email)
	} else {
		b.WriteString("1. Auth: NOT Logged In\n")
	}

	if count, err := r.gateway.CountProducts(ctx); err != nil {
		fmt.Fprintf(&b, "2. DB Read: FAILED (%v)\n", err)
	} else {
		fmt.Fprintf(&b, "2. DB Read: Success (%d products)\n", count)
	}

	if session.Valid() {
		probe := &models.Product{
			ID:          uuid.New().String(),
			Name:        "Diag Test",
			Brand:       "Generic",
			Category:    models.CategoryAccessories,
			Price:       decimal.Zero,
			Image:       "test",
			Description: "test",
		}
		if err := r.gateway.CreateProduct(ctx, probe); err != nil {
			fmt.Fprintf(&b, "3. DB Write: FAILED (%v)\n", err)
		} else {
			b.WriteString("3. DB Write: Success\n")
			_ = r.gateway.DeleteProduct(ctx, probe.ID)
		}
	} else {
		b.WriteString("3. DB Write: Skipped (Not Logged In)\n")
	}

	if err := r.storage.Reachable(ctx); err != nil {
		fmt.Fprintf(&b, "4. Storage: FAILED (%v)\n", err)
	} else {
		b.WriteString("4. Storage: Success\n")
	}

	if err := r.cache.Ping(ctx); err != nil {
		fmt.Fprintf(&b, "5. Cart Storage: FAILED (%v)\n", err)
	} else {
		b.WriteString("5. Cart Storage: Success\n")
	}

	return b.String()
}
