// Package mocks holds generated test doubles.
package mocks

//go:generate mockgen -destination=booking_store_mock.go -package=mocks -mock_names=Store=MockBookingStore alxtravel/internal/domain/booking Store
//go:generate mockgen -destination=listing_store_mock.go -package=mocks -mock_names=Store=MockListingStore alxtravel/internal/domain/listings Store
//go:generate mockgen -destination=producer_mock.go -package=mocks alxtravel/internal/infra/outbox Producer
