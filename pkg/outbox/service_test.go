package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/silkmall/silkmall-backend/pkg/db/models"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:outbox_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	return NewService(NewRepository(db), logg)
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := newTestService(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   42,
			Actor:         &ActorRef{AccountID: 7, Role: enums.AccountRoleConsumer},
			Data:          map[string]any{"orderNumber": "1700000000000abcd1234"},
			Version:       1,
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var row models.OutboxEvent
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %s", row.EventType)
	}
	if row.AggregateID != 42 {
		t.Fatalf("unexpected aggregate id %d", row.AggregateID)
	}
	if row.PublishedAt != nil {
		t.Fatalf("new rows must start unpublished")
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.EventID == "" {
		t.Fatalf("expected envelope event id")
	}
	if envelope.OccurredAt.IsZero() {
		t.Fatalf("expected occurred-at to default to now")
	}
	if envelope.Actor == nil || envelope.Actor.AccountID != 7 {
		t.Fatalf("expected actor preserved, got %+v", envelope.Actor)
	}

	var data map[string]string
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["orderNumber"] != "1700000000000abcd1234" {
		t.Fatalf("unexpected data %v", data)
	}
}

func TestEmitIfNotExistsDeduplicatesPerAggregate(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := newTestService(t, db)

	event := DomainEvent{
		EventType:     enums.EventPayoutApproved,
		AggregateType: enums.AggregateOrder,
		AggregateID:   9,
		Data:          map[string]any{"orderId": 9},
	}

	for i := 0; i < 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		})
		if err != nil {
			t.Fatalf("emit attempt %d: %v", i+1, err)
		}
	}

	var count int64
	if err := db.Model(&models.OutboxEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
}

func TestFetchUnpublishedSkipsExhaustedAndPublishedRows(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := newTestService(t, db)
	repo := NewRepository(db)

	ids := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   int64(100 + i),
				Data:          map[string]any{},
			})
		})
		if err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	var rows []models.OutboxEvent
	if err := db.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	if err := repo.MarkPublished(ids[0]); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := repo.MarkFailed(ids[1], fmt.Errorf("boom")); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
	}

	pending, err := repo.FetchUnpublished(10, 5)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending row, got %d", len(pending))
	}
	if pending[0].ID != ids[2] {
		t.Fatalf("wrong row considered pending")
	}

	var failed models.OutboxEvent
	if err := db.First(&failed, "id = ?", ids[1]).Error; err != nil {
		t.Fatalf("load failed row: %v", err)
	}
	if failed.AttemptCount != 5 {
		t.Fatalf("expected attempt count 5, got %d", failed.AttemptCount)
	}
	if failed.LastError == nil || *failed.LastError != "boom" {
		t.Fatalf("expected last error recorded")
	}
}
