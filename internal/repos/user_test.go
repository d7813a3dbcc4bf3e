package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

func TestUserFindOrCreate(t *testing.T) {
	fx := newFixture(t)
	users := NewUserRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	again, created, err := users.FindOrCreate(ctx, nil, fx.origin.ID, "student-1")
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if created {
		t.Fatalf("existing user reported as created")
	}
	if again.ID != fx.user.ID {
		t.Fatalf("found a different user")
	}

	other, created, err := users.FindOrCreate(ctx, nil, fx.origin.ID, "student-2")
	if err != nil {
		t.Fatalf("create second user: %v", err)
	}
	if !created || other.ID == fx.user.ID {
		t.Fatalf("second origin uid must create a fresh user")
	}
}

func TestSetPropertyUpdatesInPlace(t *testing.T) {
	fx := newFixture(t)
	users := NewUserRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	if err := users.SetProperty(ctx, nil, fx.user.ID, "language", []byte(`"de"`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := users.SetProperty(ctx, nil, fx.user.ID, "language", []byte(`"en"`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	props, err := users.ListProperties(ctx, nil, fx.user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(props) != 1 {
		t.Fatalf("got %d rows for one key, want 1", len(props))
	}
	if string(props[0].Value) != `"en"` {
		t.Fatalf("value = %s, want \"en\"", props[0].Value)
	}
}

func TestGetPropertyDuplicatesResolveToOldest(t *testing.T) {
	fx := newFixture(t)
	users := NewUserRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	// The schema does not enforce key uniqueness; fabricate the corrupt
	// state directly.
	older := &types.UserProperty{
		ID: uuid.New(), UserID: fx.user.ID, Key: "language", Value: []byte(`"de"`),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &types.UserProperty{
		ID: uuid.New(), UserID: fx.user.ID, Key: "language", Value: []byte(`"en"`),
		CreatedAt: time.Now(),
	}
	if err := fx.db.Create(older).Error; err != nil {
		t.Fatalf("seed older: %v", err)
	}
	if err := fx.db.Create(newer).Error; err != nil {
		t.Fatalf("seed newer: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := users.GetProperty(ctx, nil, fx.user.ID, "language")
		if err != nil {
			t.Fatalf("get #%d: %v", i, err)
		}
		if got.ID != older.ID {
			t.Fatalf("get #%d returned %s, want the oldest row", i, got.ID)
		}
	}
}

func TestGetPropertyMissing(t *testing.T) {
	fx := newFixture(t)
	users := NewUserRepo(fx.db, logger.NewNop())

	_, err := users.GetProperty(context.Background(), nil, fx.user.ID, "absent")
	if !errors.Is(err, siddata.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	fx := newFixture(t)
	users := NewUserRepo(fx.db, logger.NewNop())
	ctx := context.Background()

	if err := users.Delete(ctx, nil, fx.user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := users.GetByID(ctx, nil, fx.user.ID); !errors.Is(err, siddata.ErrNotFound) {
		t.Fatalf("user still present after delete: %v", err)
	}
}
