package dto

import "alxtravel/internal/domain/shared/daterange"

type FreeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Availability struct {
	ListingID string      `json:"listing_id"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Free      []FreeRange `json:"free"`
}

func MapAvailability(listingID string, window daterange.DateRange, free []daterange.DateRange) Availability {
	out := Availability{
		ListingID: listingID,
		From:      window.CheckIn.Format(daterange.DateLayout),
		To:        window.CheckOut.Format(daterange.DateLayout),
		Free:      make([]FreeRange, 0, len(free)),
	}
	for _, r := range free {
		out.Free = append(out.Free, FreeRange{
			From: r.CheckIn.Format(daterange.DateLayout),
			To:   r.CheckOut.Format(daterange.DateLayout),
		})
	}
	return out
}
