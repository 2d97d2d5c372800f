package repo

import (
	"github.com/mh26/services/internal/pg"
	bookingrepo "github.com/mh26/services/internal/repo/booking-repo"
	catalogrepo "github.com/mh26/services/internal/repo/catalog-repo"
	notificationrepo "github.com/mh26/services/internal/repo/notification-repo"
	providerrepo "github.com/mh26/services/internal/repo/provider-repo"
	reviewrepo "github.com/mh26/services/internal/repo/review-repo"
	transactionrepo "github.com/mh26/services/internal/repo/transaction-repo"
	"github.com/mh26/services/internal/service/bookingservice"
	"github.com/mh26/services/internal/service/notificationservice"
	"github.com/mh26/services/internal/service/providerservice"
)

// ProviderRepo serves both the booking flows and provider administration.
type ProviderRepo interface {
	bookingservice.ProviderRepo
	providerservice.Repo
}

type Repositories struct {
	Bookings      bookingservice.BookingRepo
	Providers     ProviderRepo
	Catalog       bookingservice.CatalogRepo
	Transactions  bookingservice.TransactionRepo
	Reviews       bookingservice.ReviewRepo
	Notifications notificationservice.Repo
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		Bookings:      bookingrepo.New(conn),
		Providers:     providerrepo.New(conn),
		Catalog:       catalogrepo.New(conn),
		Transactions:  transactionrepo.New(conn),
		Reviews:       reviewrepo.New(conn),
		Notifications: notificationrepo.New(conn),
	}
}
