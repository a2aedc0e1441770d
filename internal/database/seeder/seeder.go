// Package seeder fills a fresh development database with demo data.
// Production environments never run it.
package seeder

import (
	"context"

	"skilltrade/internal/database"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
