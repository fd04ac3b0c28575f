package postgres_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/seumarket/campus-market/internal/address/domain"
	addresspg "github.com/seumarket/campus-market/internal/address/infrastructure/postgres"
	"github.com/seumarket/campus-market/internal/fault"
	platformpg "github.com/seumarket/campus-market/internal/platform/postgres"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		fmt.Println("skipping address store tests: INTEGRATION_TESTS not set")
		os.Exit(0)
	}

	ctx := context.Background()
	pgC, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("campusmarket"),
		pgcontainer.WithUsername("postgres"),
		pgcontainer.WithPassword("postgres"),
		pgcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Println("container setup failed:", err)
		os.Exit(1)
	}
	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		pool, err = platformpg.NewPool(ctx, url)
	}
	if err == nil {
		err = platformpg.Migrate(ctx, pool)
	}
	if err != nil {
		_ = pgC.Terminate(ctx)
		fmt.Println("setup failed:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	_ = pgC.Terminate(ctx)
	os.Exit(code)
}

func seedUser(t *testing.T) int64 {
	t.Helper()
	var id int64
	nano := time.Now().UnixNano()
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (username, email)
		VALUES ($1, $2)
		RETURNING id`,
		fmt.Sprintf("addr_user_%d", nano),
		fmt.Sprintf("addr_user_%d@campus.test", nano),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func input(name string, isDefault bool) domain.AddressInput {
	return domain.AddressInput{
		RecipientName: name,
		Phone:         "13800000000",
		Detail:        "Dorm 5, Room 301",
		IsDefault:     isDefault,
	}
}

func defaultCount(t *testing.T, userID int64) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT count(*) FROM addresses WHERE user_id = $1 AND is_default`, userID).Scan(&n))
	return n
}

func TestCreateKeepsSingleDefault(t *testing.T) {
	repo := addresspg.NewRepository(slog.Default(), pool)
	ctx := context.Background()
	user := seedUser(t)

	first, err := repo.Create(ctx, user, input("First", true))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := repo.Create(ctx, user, input("Second", true))
	require.NoError(t, err)
	assert.True(t, second.IsDefault)
	assert.Equal(t, 1, defaultCount(t, user))

	addresses, err := repo.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, second.ID, addresses[0].ID, "default address sorts first")
}

func TestUpdateMovesDefault(t *testing.T) {
	repo := addresspg.NewRepository(slog.Default(), pool)
	ctx := context.Background()
	user := seedUser(t)

	a, err := repo.Create(ctx, user, input("A", true))
	require.NoError(t, err)
	b, err := repo.Create(ctx, user, input("B", false))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, user, b.ID, input("B", true))
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, 1, defaultCount(t, user))

	addresses, err := repo.List(ctx, user)
	require.NoError(t, err)
	for _, addr := range addresses {
		if addr.ID == a.ID {
			assert.False(t, addr.IsDefault)
		}
	}
}

func TestUpdateEnforcesOwnership(t *testing.T) {
	repo := addresspg.NewRepository(slog.Default(), pool)
	ctx := context.Background()
	owner := seedUser(t)
	stranger := seedUser(t)

	a, err := repo.Create(ctx, owner, input("Mine", false))
	require.NoError(t, err)

	_, err = repo.Update(ctx, stranger, a.ID, input("Stolen", false))
	assert.Equal(t, fault.KindPermissionDenied, fault.KindOf(err))

	_, err = repo.Update(ctx, owner, 999999999, input("Ghost", false))
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}
