package postgres

import "time"

type listingRow struct {
	ID              string `gorm:"primaryKey;type:text"`
	Owner           string `gorm:"not null;index"`
	Title           string `gorm:"not null"`
	Description     string
	Location        string
	NightlyAmount   int64  `gorm:"not null;check:nightly_amount >= 0"`
	NightlyCurrency string `gorm:"type:char(3);not null"`
	Active          bool   `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64 `gorm:"not null;default:1"`
}

func (listingRow) TableName() string { return "listings" }

type bookingRow struct {
	ID            string    `gorm:"primaryKey;type:text"`
	ListingID     string    `gorm:"not null;index:idx_bookings_listing_status,priority:1"`
	GuestID       string    `gorm:"not null;index"`
	CheckIn       time.Time `gorm:"type:date;not null"`
	CheckOut      time.Time `gorm:"type:date;not null"`
	Status        string    `gorm:"type:text;not null;index:idx_bookings_listing_status,priority:2"`
	Nights        int       `gorm:"not null"`
	NightlyAmount int64     `gorm:"not null"`
	TotalAmount   int64     `gorm:"not null"`
	Currency      string    `gorm:"type:char(3);not null"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
	Version       int64 `gorm:"not null;default:1"`
}

func (bookingRow) TableName() string { return "bookings" }

type reviewRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	BookingID string    `gorm:"not null"`
	ListingID string    `gorm:"not null;uniqueIndex:idx_reviews_listing_author,priority:1"`
	AuthorID  string    `gorm:"not null;uniqueIndex:idx_reviews_listing_author,priority:2"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

func (reviewRow) TableName() string { return "reviews" }

type outboxRow struct {
	ID            string    `gorm:"primaryKey;type:text"`
	Name          string    `gorm:"not null"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	OccurredAt    time.Time `gorm:"not null"`
	Aggregate     string    `gorm:"not null"`
	Headers       []byte    `gorm:"type:jsonb"`
	State         string    `gorm:"not null;index:idx_outbox_due,priority:1"`
	Attempts      int       `gorm:"not null;default:0"`
	NextAttemptAt time.Time `gorm:"not null;index:idx_outbox_due,priority:2"`
	ClaimedBy     string
	ClaimedAt     *time.Time
	SentAt        *time.Time
	LastError     string
	CreatedAt     time.Time
}

func (outboxRow) TableName() string { return "app_outbox" }
