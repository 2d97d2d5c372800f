package domain

const (
	MinRating = 1
	MaxRating = 5
)

// AddRating folds one rating into the running average without rescanning
// previous reviews.
func (p *Provider) AddRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	n := float64(p.TotalRatings)
	p.AverageRating = (p.AverageRating*n + float64(rating)) / (n + 1)
	p.TotalRatings++
	return nil
}
