package scheduler

import (
	"context"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
)

const JobExpireStaleBookings = "expire_stale_bookings"

// ExpireStaleBookings cancels pending bookings whose date has passed.
func ExpireStaleBookings(svc *booking.Service) JobFunc {
	return func(ctx context.Context) error {
		_, err := svc.ExpireStale(ctx)
		return err
	}
}
