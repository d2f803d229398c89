package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/adapters/persistence/repositories"
	"award-portal/internal/config"
	"award-portal/internal/pkg/paystack"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq uint64

// testEnv wires the full service graph against an in-memory database, the
// same way routes.Setup does in production.
type testEnv struct {
	db *gorm.DB

	userRepo     *repositories.UserRepository
	categoryRepo *repositories.CategoryRepository
	nomineeRepo  *repositories.NomineeRepository
	paymentRepo  *repositories.PaymentRepository
	voteRepo     *repositories.VoteRepository
	reconRepo    *repositories.ReconciliationRepository

	gateway *stubGateway

	eligibility *EligibilityService
	tally       *TallyService
	votes       *VoteService

	cfg *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Unique DSN per test: cache=shared lets gorm's pooled connections see
	// the same database without sharing state between tests.
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), atomic.AddUint64(&testDBSeq, 1))
	dsn = strings.ReplaceAll(dsn, "/", "_")

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Single connection: serializes writers so concurrent commits exercise
	// the unique index instead of sqlite table locking.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Voting: config.VotingConfig{
			Currency:            "NGN",
			PaymentExpiryMins:   30,
			VerifyMaxAttempts:   3,
			VerifyBackoffMillis: 1,
		},
	}

	env := &testEnv{
		db:           db,
		userRepo:     repositories.NewUserRepository(db),
		categoryRepo: repositories.NewCategoryRepository(db),
		nomineeRepo:  repositories.NewNomineeRepository(db),
		paymentRepo:  repositories.NewPaymentRepository(db),
		voteRepo:     repositories.NewVoteRepository(db),
		reconRepo:    repositories.NewReconciliationRepository(db),
		gateway:      newStubGateway(),
		cfg:          cfg,
	}

	env.eligibility = NewEligibilityService(env.categoryRepo, env.voteRepo, env.userRepo)
	env.tally = NewTallyService(env.voteRepo, env.nomineeRepo)
	env.votes = NewVoteService(
		env.eligibility,
		env.gateway,
		env.userRepo,
		env.categoryRepo,
		env.nomineeRepo,
		env.paymentRepo,
		env.voteRepo,
		env.reconRepo,
		env.tally,
		cfg,
	)

	return env
}

// createUser inserts an active user with the given role
func (e *testEnv) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "not-a-real-hash",
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

// createOpenCategory inserts a category accepting votes right now
func (e *testEnv) createOpenCategory(t *testing.T, name string, price float64) *models.Category {
	t.Helper()
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	category := &models.Category{
		Name:            name,
		VotePrice:       price,
		VotingActive:    true,
		VotingStartDate: &start,
		VotingEndDate:   &end,
		MaxNominees:     20,
		IsActive:        true,
	}
	require.NoError(t, e.categoryRepo.Create(context.Background(), category))
	return category
}

// createApprovedNominee inserts an approved nominee in the category
func (e *testEnv) createApprovedNominee(t *testing.T, categoryID uint, name string) *models.Nominee {
	t.Helper()
	nominee := &models.Nominee{
		CategoryID:  categoryID,
		DisplayName: name,
		Status:      models.NomineeStatusApproved,
	}
	require.NoError(t, e.nomineeRepo.Create(context.Background(), nominee))
	return nominee
}

// stubGateway is an in-memory PaymentGateway with scriptable verify behavior
type stubGateway struct {
	inner *paystack.Client

	mu            sync.Mutex
	initializeErr error
	verifyErr     error
	// verifyErrTimes makes verifyErr transient: it clears after N calls
	verifyErrTimes int
	verifyCalls    int
	// override replaces the mock verify result when set
	override func(*paystack.VerifyResult)
}

func newStubGateway() *stubGateway {
	return &stubGateway{inner: paystack.NewClient("", "sk_test_stub", true)}
}

func (g *stubGateway) Initialize(ctx context.Context, req *paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	if g.initializeErr != nil {
		return nil, g.initializeErr
	}
	return g.inner.Initialize(ctx, req)
}

func (g *stubGateway) Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	g.mu.Lock()
	g.verifyCalls++
	calls := g.verifyCalls
	verifyErr := g.verifyErr
	errTimes := g.verifyErrTimes
	override := g.override
	g.mu.Unlock()

	if verifyErr != nil {
		if errTimes == 0 || calls <= errTimes {
			return nil, verifyErr
		}
	}
	result, err := g.inner.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(result)
	}
	return result, nil
}
