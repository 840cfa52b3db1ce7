package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "alxtravel/internal/app/outbox"
	"alxtravel/internal/domain/shared/events"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// Outbox is the app_outbox table. Claims use SKIP LOCKED so several relays can share it.
type Outbox struct {
	db       *gorm.DB
	encoder  appoutbox.EventEncoder
	claimTTL time.Duration
}

func NewOutbox(db *gorm.DB) *Outbox {
	return &Outbox{db: db, encoder: appoutbox.JSONEventEncoder{}, claimTTL: time.Minute}
}

// write inserts through tx so the records commit with the state change.
func (o *Outbox) write(tx *gorm.DB, evs []events.DomainEvent) error {
	if len(evs) == 0 {
		return nil
	}
	records, err := appoutbox.Encode(o.encoder, evs)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rows := make([]outboxRow, 0, len(records))
	for _, rec := range records {
		headers, err := json.Marshal(rec.Headers)
		if err != nil {
			return err
		}
		rows = append(rows, outboxRow{
			ID:            rec.ID,
			Name:          rec.Name,
			Payload:       rec.Payload,
			OccurredAt:    rec.OccurredAt,
			Aggregate:     rec.Aggregate,
			Headers:       headers,
			State:         stateNew,
			NextAttemptAt: now,
			CreatedAt:     now,
		})
	}
	return tx.Create(&rows).Error
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*appoutbox.Claimed, error) {
	var claimed *appoutbox.Claimed
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var row outboxRow
		res := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(state IN ? AND next_attempt_at <= ?) OR (state = ? AND claimed_at <= ?)",
				[]string{stateNew, stateFailed}, now, stateClaimed, now.Add(-o.claimTTL)).
			Order("next_attempt_at").
			Limit(1).
			Find(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&outboxRow{}).Where("id = ?", row.ID).Updates(map[string]any{
			"state":      stateClaimed,
			"claimed_by": workerID,
			"claimed_at": now,
		}).Error; err != nil {
			return err
		}
		headers := map[string]string{}
		if len(row.Headers) > 0 {
			if err := json.Unmarshal(row.Headers, &headers); err != nil {
				return err
			}
		}
		claimed = &appoutbox.Claimed{
			EventRecord: appoutbox.EventRecord{
				ID:         row.ID,
				Name:       row.Name,
				Payload:    row.Payload,
				OccurredAt: row.OccurredAt.UTC(),
				Aggregate:  row.Aggregate,
				Headers:    headers,
			},
			Attempts: row.Attempts,
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "claim outbox record")
	}
	return claimed, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	err := o.db.WithContext(ctx).Model(&outboxRow{}).Where("id = ?", id).Updates(map[string]any{
		"state":   stateSent,
		"sent_at": time.Now().UTC(),
	}).Error
	return translate(err, "mark outbox record sent")
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	err := o.db.WithContext(ctx).Model(&outboxRow{}).Where("id = ?", id).Updates(map[string]any{
		"state":           stateFailed,
		"next_attempt_at": next,
		"last_error":      errMsg,
		"attempts":        gorm.Expr("attempts + 1"),
	}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return translate(err, "mark outbox record failed")
}

var _ appoutbox.Source = (*Outbox)(nil)
