package bookingservice

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/internal/notify"
)

// SubmitReview stores the customer's review of a completed booking and folds
// the rating into the provider's average under the provider row lock.
func (s *Service) SubmitReview(ctx context.Context, actor lifecycle.Actor, id int64, rating int, comment string) (*domain.Review, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidRating, rating)
	}

	var (
		review *domain.Review
		staged []domain.Notification
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		b, err := s.bookings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
		}
		if actor.Role != lifecycle.RoleCustomer || actor.UserID != b.CustomerID {
			return fmt.Errorf("%w: only the customer of booking %d can review it", domain.ErrForbidden, id)
		}
		if b.Status != domain.BookingCompleted {
			return fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidTransition, id, b.Status)
		}
		existing, err := s.reviews.FindByBookingID(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: booking %d", domain.ErrDuplicateReview, id)
		}

		provider, err := s.lockProvider(ctx, b.ProviderID)
		if err != nil {
			return err
		}
		review = &domain.Review{
			BookingID:  b.ID,
			ProviderID: b.ProviderID,
			CustomerID: b.CustomerID,
			Rating:     rating,
			Comment:    comment,
		}
		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}
		if err := provider.AddRating(rating); err != nil {
			return err
		}
		if err := s.providers.UpdateRating(ctx, provider.ID, provider.AverageRating, provider.TotalRatings); err != nil {
			return err
		}

		staged = notify.For(notify.Event{
			Kind:    notify.ReviewSubmitted,
			Booking: *b,
			Rating:  rating,
			Comment: comment,
		}, parties(b, provider))
		return s.notifier.Stage(ctx, staged)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, staged)
	zap.L().Info("review submitted", zap.Int64("booking_id", id), zap.Int("rating", rating))
	return review, nil
}
