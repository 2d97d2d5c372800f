package repo

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingrepo "github.com/mh26/services/internal/repo/booking-repo"
	catalogrepo "github.com/mh26/services/internal/repo/catalog-repo"
	notificationrepo "github.com/mh26/services/internal/repo/notification-repo"
	providerrepo "github.com/mh26/services/internal/repo/provider-repo"
	reviewrepo "github.com/mh26/services/internal/repo/review-repo"
	transactionrepo "github.com/mh26/services/internal/repo/transaction-repo"
)

func TestNew(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := New(mock)

	assert.IsType(t, &bookingrepo.Repository{}, repo.Bookings)
	assert.IsType(t, &providerrepo.Repository{}, repo.Providers)
	assert.IsType(t, &catalogrepo.Repository{}, repo.Catalog)
	assert.IsType(t, &transactionrepo.Repository{}, repo.Transactions)
	assert.IsType(t, &reviewrepo.Repository{}, repo.Reviews)
	assert.IsType(t, &notificationrepo.Repository{}, repo.Notifications)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}
