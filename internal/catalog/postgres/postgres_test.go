//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"cratercat/internal/catalog"
	"cratercat/internal/config"
	"cratercat/internal/crater"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.CatalogConfig{
		DatabaseURL:  dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testRun(id string, at time.Time) catalog.Run {
	return catalog.Run{
		ID:            id,
		StartedAt:     at,
		Images:        30,
		RawDetections: 120,
		Unique:        80,
	}
}

func TestCraterRepository_SaveAndRead(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	defer cleanup()

	repo := NewCraterRepository(pool)
	ctx := context.Background()

	craters := []crater.Crater{
		{Lon: -25.5, Lat: 15.25, RadiusKm: 12.75},
		{Lon: 100.0, Lat: -45.0, RadiusKm: 3.5},
	}
	run := testRun("11111111-1111-1111-1111-111111111111", time.Now())
	if err := repo.SaveCatalog(ctx, run, craters); err != nil {
		t.Fatalf("failed to save catalog: %v", err)
	}

	back, err := repo.Craters(ctx)
	if err != nil {
		t.Fatalf("failed to read catalog: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("expected 2 craters, got %d", len(back))
	}
	for i, c := range craters {
		if back[i] != c {
			t.Errorf("crater %d: expected %+v, got %+v", i, c, back[i])
		}
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
}

func TestCraterRepository_LatestRunWins(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	defer cleanup()

	repo := NewCraterRepository(pool)
	ctx := context.Background()

	old := testRun("22222222-2222-2222-2222-222222222222", time.Now().Add(-time.Hour))
	if err := repo.SaveCatalog(ctx, old, []crater.Crater{{Lon: 1, Lat: 2, RadiusKm: 3}}); err != nil {
		t.Fatalf("failed to save old run: %v", err)
	}

	latest := testRun("33333333-3333-3333-3333-333333333333", time.Now())
	if err := repo.SaveCatalog(ctx, latest, []crater.Crater{
		{Lon: 10, Lat: 20, RadiusKm: 30},
		{Lon: 40, Lat: 50, RadiusKm: 60},
	}); err != nil {
		t.Fatalf("failed to save latest run: %v", err)
	}

	back, err := repo.Craters(ctx)
	if err != nil {
		t.Fatalf("failed to read catalog: %v", err)
	}
	if len(back) != 2 || back[0].Lon != 10 {
		t.Errorf("expected latest run data, got %+v", back)
	}
}

func TestCraterRepository_NearestCraters(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	defer cleanup()

	repo := NewCraterRepository(pool)
	ctx := context.Background()

	run := testRun("44444444-4444-4444-4444-444444444444", time.Now())
	craters := []crater.Crater{
		{Lon: 0, Lat: 0, RadiusKm: 5},
		{Lon: 10, Lat: 10, RadiusKm: 8},
		{Lon: -50, Lat: 30, RadiusKm: 12},
	}
	if err := repo.SaveCatalog(ctx, run, craters); err != nil {
		t.Fatalf("failed to save catalog: %v", err)
	}

	near, err := repo.NearestCraters(ctx, 1.0, 1.0, 2)
	if err != nil {
		t.Fatalf("failed to query nearest craters: %v", err)
	}
	if len(near) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(near))
	}
	if near[0].Lon != 0 || near[0].Lat != 0 {
		t.Errorf("expected (0, 0) as closest crater, got %+v", near[0])
	}
	if near[1].Lon != 10 {
		t.Errorf("expected (10, 10) as second closest, got %+v", near[1])
	}
}
