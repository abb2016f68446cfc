package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
)

const (
	eventTypeUserRegistered    = "user.registered"
	eventTypeMitraCreated      = "mitra.created"
	eventTypeMitraDeleted      = "mitra.deleted"
	eventTypeMitraImported     = "mitra.imported"
	eventTypeKegiatanCreated   = "kegiatan.created"
	eventTypeKegiatanUpdated   = "kegiatan.updated"
	eventTypeKegiatanDeleted   = "kegiatan.deleted"
	eventTypeHonorLimitUpdated = "honor.limit.updated"
	eventTypeHonorRebuilt      = "honor.rebuilt"
)

// enqueue writes an event through the transaction's outbox so it commits
// together with the state change.
func (s *Service) enqueue(ctx context.Context, tx ports.TxRepositories, eventType, partitionKey string, fields map[string]any) error {
	now := s.nowFn()
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["occurred_at"] = now
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return tx.Outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		OccurredAt:   now,
	})
}
