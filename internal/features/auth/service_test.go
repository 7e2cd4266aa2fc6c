package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/team"
	"taskpilot/internal/features/user"
)

type mockUserRepo struct {
	user.UserRepository
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, userID primitive.ObjectID, tokenHash string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.ResetTokenHash = tokenHash
	u.ResetTokenExpiry = &expiry
	return nil
}

func (m *mockUserRepo) FindByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetTokenHash == tokenHash && tokenHash != "" {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID primitive.ObjectID, hashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.Password = hashed
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = nil
	return nil
}

type stubTeamRepo struct{ team.TeamRepository }

type captureMailer struct {
	mu   sync.Mutex
	to   string
	body string
}

func (m *captureMailer) Send(to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = to
	m.body = htmlBody
	return nil
}

type discardNotifRepo struct{ notification.NotificationRepository }

func (discardNotifRepo) Create(ctx context.Context, n *notification.Notification) error { return nil }
func (discardNotifRepo) CreateMany(ctx context.Context, ns []notification.Notification) error {
	return nil
}

func newAuthService(repo *mockUserRepo, mailer *captureMailer) AuthService {
	dispatcher := notification.NewDispatcher(discardNotifRepo{}, repo, zap.NewNop())
	return NewAuthService(repo, stubTeamRepo{}, mailer, dispatcher, zap.NewNop(), &config.Config{AppURL: "http://localhost:3000"})
}

func TestRegisterHashesPasswordAndIssuesToken(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo, &captureMailer{})

	u, token, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleTeamMember, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("supersecret")))
	assert.NotEqual(t, "supersecret", u.Password)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: primitive.NewObjectID(), Email: "dana@example.com"})
	svc := newAuthService(repo, &captureMailer{})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "supersecret",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), &captureMailer{})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "supersecret",
		Role:     "admin",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoginWrongPasswordForbidden(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMockUserRepo(&models.User{ID: primitive.NewObjectID(), Email: "dana@example.com", Password: string(hashed)})
	svc := newAuthService(repo, &captureMailer{})

	_, _, err = svc.Login(context.Background(), "dana@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestForgotPasswordUnknownEmailSilent(t *testing.T) {
	mailer := &captureMailer{}
	svc := newAuthService(newMockUserRepo(), mailer)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, mailer.to, "no mail for unknown accounts")
}

var tokenRe = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestPasswordResetRoundTrip(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Name: "Dana", Email: "dana@example.com"}
	repo := newMockUserRepo(u)
	mailer := &captureMailer{}
	svc := newAuthService(repo, mailer)

	require.NoError(t, svc.ForgotPassword(context.Background(), u.Email))
	require.Equal(t, u.Email, mailer.to)

	match := tokenRe.FindStringSubmatch(mailer.body)
	require.Len(t, match, 2, "reset mail must carry the raw token")
	token := match[1]

	assert.NotEqual(t, token, u.ResetTokenHash, "only the hash is stored")

	require.NoError(t, svc.VerifyResetToken(context.Background(), token))
	require.NoError(t, svc.ResetPassword(context.Background(), token, "brand-new-pass"))

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("brand-new-pass")))
	assert.Empty(t, u.ResetTokenHash, "token is single-use")

	err := svc.ResetPassword(context.Background(), token, "another-pass")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	expired := time.Now().Add(-time.Minute)
	u := &models.User{
		ID:               primitive.NewObjectID(),
		Email:            "dana@example.com",
		ResetTokenHash:   hashResetToken("deadbeef"),
		ResetTokenExpiry: &expired,
	}
	svc := newAuthService(newMockUserRepo(u), &captureMailer{})

	err := svc.ResetPassword(context.Background(), "deadbeef", "brand-new-pass")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
