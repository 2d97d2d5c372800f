package service

import (
	"github.com/mh26/services/internal/config"
	"github.com/mh26/services/internal/handlers/bookings"
	"github.com/mh26/services/internal/handlers/ledger"
	"github.com/mh26/services/internal/handlers/notifications"
	"github.com/mh26/services/internal/handlers/providers"
	"github.com/mh26/services/internal/handlers/reviews"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/internal/pg"
	"github.com/mh26/services/internal/repo"
	"github.com/mh26/services/internal/service/bookingservice"
	"github.com/mh26/services/internal/service/notificationservice"
	"github.com/mh26/services/internal/service/providerservice"
	"github.com/mh26/services/internal/settlement"
	pkgauth "github.com/mh26/services/pkg/auth"
)

type Services struct {
	BookingService      bookings.Service
	LedgerService       ledger.Service
	ReviewService       reviews.Service
	ProviderService     providers.Service
	NotificationService notifications.Service
	Settler             settlement.Settler
	ProviderResolver    pkgauth.ProviderResolver
}

func New(
	cfg *config.Config,
	repo *repo.Repositories,
	txManager pg.TXManager,
	locker bookingservice.Locker,
	publisher notificationservice.Publisher,
) *Services {
	notificationService := notificationservice.New(repo.Notifications, publisher)
	providerService := providerservice.New(repo.Providers, repo.Catalog, notificationService, txManager)
	bookingService := bookingservice.New(bookingservice.Repos{
		Bookings:     repo.Bookings,
		Providers:    repo.Providers,
		Catalog:      repo.Catalog,
		Transactions: repo.Transactions,
		Reviews:      repo.Reviews,
	}, notificationService, locker, txManager, lifecycle.Policy{
		FeeRate:            cfg.FeeRate(),
		CancellationWindow: cfg.CancellationWindow,
		StartGrace:         cfg.StartGrace,
	})

	return &Services{
		BookingService:      bookingService,
		LedgerService:       bookingService,
		ReviewService:       bookingService,
		ProviderService:     providerService,
		NotificationService: notificationService,
		Settler:             bookingService,
		ProviderResolver:    providerService,
	}
}
