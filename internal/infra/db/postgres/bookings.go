package postgres

import (
	"context"
	"errors"
	"iter"
	"time"

	"gorm.io/gorm"

	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/money"
)

// BookingRepository writes under SERIALIZABLE isolation; the bookings_no_overlap exclusion
// constraint rejects any overlapping active pair that slips past the predicate.
type BookingRepository struct {
	db     *gorm.DB
	outbox *Outbox
}

func NewBookingRepository(db *gorm.DB, outbox *Outbox) *BookingRepository {
	return &BookingRepository{db: db, outbox: outbox}
}

func (r *BookingRepository) InsertIfAvailable(ctx context.Context, b *domainbooking.Booking, available domainbooking.Predicate) (domainbooking.BookingID, error) {
	row := newBookingRow(b)
	row.Version = 1
	err := serializable(ctx, r.db, func(tx *gorm.DB) error {
		if available != nil {
			ok, err := available(ctx, txReader{tx: tx})
			if err != nil {
				return err
			}
			if !ok {
				return domainbooking.ErrConflict
			}
		}
		if err := tx.Create(&row).Error; err != nil {
			if pgCode(err) == sqlStateExclusionViolation {
				return domainbooking.ErrConflict
			}
			return err
		}
		return r.outbox.write(tx, b.PendingEvents())
	})
	if err != nil {
		return "", translate(err, "insert booking")
	}
	b.ClearEvents()
	b.Version = row.Version
	return b.ID, nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var row bookingRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, translate(err, "load booking")
	}
	return row.toAggregate(), nil
}

func (r *BookingRepository) ListActiveForListing(ctx context.Context, listingID domainlistings.ListingID, overlapping *daterange.DateRange) iter.Seq2[*domainbooking.Booking, error] {
	return txReader{tx: r.db.WithContext(ctx)}.ListActiveForListing(ctx, listingID, overlapping)
}

func (r *BookingRepository) SetStatus(ctx context.Context, id domainbooking.BookingID, status domainbooking.Status) error {
	err := serializable(ctx, r.db, func(tx *gorm.DB) error {
		var row bookingRow
		if err := tx.First(&row, "id = ?", string(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainbooking.ErrNotFound
			}
			return err
		}
		b := row.toAggregate()
		if err := b.ApplyStatus(status, time.Now()); err != nil {
			return err
		}
		res := tx.Model(&bookingRow{}).
			Where("id = ? AND version = ?", row.ID, row.Version).
			Updates(map[string]any{
				"status":     string(b.Status),
				"updated_at": b.UpdatedAt,
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}
		return r.outbox.write(tx, b.PendingEvents())
	})
	return translate(err, "set booking status")
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	var rows []bookingRow
	if err := r.db.WithContext(ctx).Where("guest_id = ?", guestID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translate(err, "list guest bookings")
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAggregate())
	}
	return out, nil
}

// txReader streams rows through whichever handle it holds, a transaction or the pool.
type txReader struct {
	tx *gorm.DB
}

func (t txReader) ListActiveForListing(ctx context.Context, listingID domainlistings.ListingID, overlapping *daterange.DateRange) iter.Seq2[*domainbooking.Booking, error] {
	return func(yield func(*domainbooking.Booking, error) bool) {
		q := t.tx.WithContext(ctx).Model(&bookingRow{}).
			Where("listing_id = ? AND status IN ?", string(listingID),
				[]string{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)})
		if overlapping != nil {
			q = q.Where("check_in < ? AND check_out > ?", overlapping.CheckOut, overlapping.CheckIn)
		}
		rows, err := q.Order("check_in").Rows()
		if err != nil {
			yield(nil, translate(err, "list active bookings"))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var row bookingRow
			if err := t.tx.ScanRows(rows, &row); err != nil {
				yield(nil, translate(err, "scan booking"))
				return
			}
			if !yield(row.toAggregate(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, translate(err, "list active bookings"))
		}
	}
}

func newBookingRow(b *domainbooking.Booking) bookingRow {
	return bookingRow{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		GuestID:       b.GuestID,
		CheckIn:       b.Range.CheckIn,
		CheckOut:      b.Range.CheckOut,
		Status:        string(b.Status),
		Nights:        b.Nights,
		NightlyAmount: b.Nightly.Amount,
		TotalAmount:   b.Total.Amount,
		Currency:      b.Total.Currency,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Version:       b.Version,
	}
}

func (row bookingRow) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(row.ID),
		ListingID: domainlistings.ListingID(row.ListingID),
		GuestID:   row.GuestID,
		Range:     daterange.DateRange{CheckIn: daterange.Truncate(row.CheckIn), CheckOut: daterange.Truncate(row.CheckOut)},
		Status:    domainbooking.Status(row.Status),
		Nights:    row.Nights,
		Nightly:   money.Money{Amount: row.NightlyAmount, Currency: row.Currency},
		Total:     money.Money{Amount: row.TotalAmount, Currency: row.Currency},
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
		Version:   row.Version,
	}
}

var (
	_ domainbooking.Store  = (*BookingRepository)(nil)
	_ domainbooking.Reader = txReader{}
)
