package identity

import (
	"errors"
	"strings"

	"github.com/tripgate/tripgate/database"
	"github.com/tripgate/tripgate/database/model"
	"github.com/tripgate/tripgate/logger"
	"github.com/tripgate/tripgate/token"
	"github.com/tripgate/tripgate/util/crypto"
)

// Classified issuance failures. The controller maps these onto status
// codes; permission problems (bad admin secret) must stay distinct from
// validation problems.
var (
	ErrEmailExists        = errors.New("user already exists")
	ErrBadRole            = errors.New("invalid role specified")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrBadAdminSecret     = errors.New("invalid secret key for Admin role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownSubject     = errors.New("user not found")
)

// passwordSymbols is the fixed set of symbols the password policy accepts.
const passwordSymbols = "!@#$%^&*()-_=+[]{};:,.?/"

// ProfileView is the self-service view of a credential record. Role is
// re-read from the store, not taken from the token, so it reflects
// administrative changes made after issuance.
type ProfileView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Service issues credentials: it validates registration, hashes passwords,
// authenticates logins and mints signed tokens through the shared codec.
type Service struct {
	codec       *token.Codec
	adminSecret string
}

func NewService(codec *token.Codec, adminSecret string) *Service {
	return &Service{codec: codec, adminSecret: adminSecret}
}

// Register validates and stores a new credential record, returning the
// assigned role. Requesting Admin without the provisioning secret fails
// with ErrBadAdminSecret and creates nothing.
func (s *Service) Register(name, email, password, role, secretKey string) (string, error) {
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleAdmin:
		if secretKey != s.adminSecret || s.adminSecret == "" {
			return "", ErrBadAdminSecret
		}
	case model.RoleUser:
	default:
		return "", ErrBadRole
	}

	if !StrongPassword(password) {
		return "", ErrWeakPassword
	}

	db := database.GetDB()

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrEmailExists
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		// Two concurrent registrations can pass the count check; the
		// unique index on email settles it.
		if database.IsDuplicate(err) {
			return "", ErrEmailExists
		}
		return "", err
	}

	logger.Infof("registered %s as %s", email, role)
	return role, nil
}

// Login authenticates the credentials and mints a token carrying the stored
// role. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *Service) Login(email, password string) (string, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Where("email = ?", email).First(user).Error
	if err != nil {
		if !database.IsNotFound(err) {
			logger.Warning("login lookup failed:", err)
		}
		return "", ErrInvalidCredentials
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	return s.codec.Sign(user.Email, user.Role)
}

// Profile re-reads the record named by a verified token's subject. A token
// can outlive its record; that surfaces as ErrUnknownSubject.
func (s *Service) Profile(email string) (*ProfileView, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Where("email = ?", email).First(user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}

	return &ProfileView{
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

// StrongPassword checks the fixed password policy: at least 8 characters
// with one uppercase letter, one lowercase letter, one digit and one symbol
// from passwordSymbols.
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
