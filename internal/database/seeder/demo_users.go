package seeder

import (
	"context"
	"fmt"

	"skilltrade/internal/database"
)

// DemoUsersSeeder creates a handful of users with complementary skills
// so matching and trading can be exercised against an empty database.
// Fixed ids keep reruns idempotent.
type DemoUsersSeeder struct{}

func (DemoUsersSeeder) Name() string { return "demo_users" }

func (DemoUsersSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "users", "id", "display_name", "rating", "location", "credits"); err != nil {
		return err
	}
	if err := EnsureTableColumns(ctx, db, "skills", "id", "user_id", "name", "proficiency", "direction"); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	users := []struct {
		ID          string
		DisplayName string
		Rating      float64
		Location    string
		Credits     int
	}{
		{"5a1f12fe-0d9c-4b33-9f3a-0b3c3a6d8101", "Ada", 4.5, "Berlin", 100},
		{"5a1f12fe-0d9c-4b33-9f3a-0b3c3a6d8102", "Bram", 3.8, "Amsterdam", 100},
		{"5a1f12fe-0d9c-4b33-9f3a-0b3c3a6d8103", "Cleo", 4.9, "Remote", 100},
	}
	for _, u := range users {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO users (id, display_name, rating, location, credits) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			u.ID, u.DisplayName, u.Rating, u.Location, u.Credits,
		)
		if err != nil {
			return err
		}
	}

	skills := []struct {
		ID          string
		UserID      string
		Name        string
		Category    string
		Proficiency int
		Direction   string
	}{
		{"7c2e34aa-1e5b-4c77-8d21-1c4d4b7e9201", users[0].ID, "Go", "Programming", 5, "offered"},
		{"7c2e34aa-1e5b-4c77-8d21-1c4d4b7e9202", users[0].ID, "Spanish", "Language", 1, "wanted"},
		{"7c2e34aa-1e5b-4c77-8d21-1c4d4b7e9203", users[1].ID, "Spanish", "Language", 4, "offered"},
		{"7c2e34aa-1e5b-4c77-8d21-1c4d4b7e9204", users[1].ID, "Go", "Programming", 2, "wanted"},
		{"7c2e34aa-1e5b-4c77-8d21-1c4d4b7e9205", users[2].ID, "Guitar", "Music", 5, "offered"},
		{"7c2e34aa-1e5b-4c77-8d21-1c4d4b7e9206", users[2].ID, "Go", "Programming", 3, "wanted"},
	}
	for _, s := range skills {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO skills (id, user_id, name, category, proficiency, direction) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			s.ID, s.UserID, s.Name, s.Category, s.Proficiency, s.Direction,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
