package identity

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgate/tripgate/database"
	"github.com/tripgate/tripgate/database/model"
	"github.com/tripgate/tripgate/token"
)

const testAdminSecret = "test-admin-secret"

func setupDB(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.InitDB(dbPath))
	t.Cleanup(func() {
		_ = database.CloseDB()
	})
}

func newTestService(t *testing.T) (*Service, *token.Codec) {
	t.Helper()
	setupDB(t)
	codec := token.NewCodec("test-secret", time.Hour)
	return NewService(codec, testAdminSecret), codec
}

func TestRegisterThenLogin(t *testing.T) {
	svc, codec := newTestService(t)

	role, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "User", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	tok, err := svc.Login("a@x.com", "Str0ng!Pw")
	require.NoError(t, err)

	claims, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	svc, _ := newTestService(t)

	role, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "User", "")
	require.NoError(t, err)

	_, err = svc.Register("B", "a@x.com", "Str0ng!Pw2", "User", "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterAdminRequiresSecret(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "Admin", "wrong")
	assert.ErrorIs(t, err, ErrBadAdminSecret)

	// The failed attempt must not leave a record behind.
	var count int64
	require.NoError(t, database.GetDB().Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)

	role, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "Admin", testAdminSecret)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "Moderator", "")
	assert.ErrorIs(t, err, ErrBadRole)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("A", "a@x.com", "short1!", "User", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestLoginNonDisclosure(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "User", "")
	require.NoError(t, err)

	_, errUnknown := svc.Login("nobody@x.com", "Str0ng!Pw")
	_, errWrongPw := svc.Login("a@x.com", "not-the-password")

	// Unknown email and wrong password must be indistinguishable.
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestProfileReadsCurrentRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("A", "a@x.com", "Str0ng!Pw", "User", "")
	require.NoError(t, err)

	// Simulate an administrative role change after issuance.
	require.NoError(t, database.GetDB().
		Model(&model.User{}).
		Where("email = ?", "a@x.com").
		Update("role", model.RoleAdmin).Error)

	view, err := svc.Profile("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, view.Role)
	assert.Equal(t, "A", view.Name)
}

func TestProfileUnknownSubject(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Profile("ghost@x.com")
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"all classes", "Str0ng!Pw", true},
		{"too short", "S1!a", false},
		{"no uppercase", "str0ng!pw", false},
		{"no lowercase", "STR0NG!PW", false},
		{"no digit", "Strong!Pw", false},
		{"no symbol", "Str0ngPw1", false},
		{"symbol outside the allowed set", "Str0ngPw~", false},
		{"exactly eight chars", "Aa1!aaaa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StrongPassword(tt.password))
		})
	}
}
