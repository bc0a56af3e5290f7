package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sitecontent/internal/lib/jwt"
	"sitecontent/internal/lib/logger/sl"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Admin единственная учётная запись с правом редактировать коллекции.
type Admin struct {
	User         string
	PasswordHash []byte
}

type Auth struct {
	log         *slog.Logger
	admin       Admin
	tokenSecret []byte
	tokenTTL    time.Duration
	limiter     *LoginLimiter
}

func New(log *slog.Logger, admin Admin, tokenSecret []byte, tokenTTL time.Duration, limiter *LoginLimiter) *Auth {

	return &Auth{
		log:         log,
		admin:       admin,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
		limiter:     limiter,
	}
}

// Login проверяет учётные данные и выдаёт bearer-токен.
func (a *Auth) Login(ctx context.Context, ip, user, password string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", user),
		slog.String("ip", ip),
	)

	log.Info("attempting to login")

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !a.limiter.Check(ip) {
		log.Warn("login rate limit exceeded")

		return "", fmt.Errorf("%s: %w", op, ErrTooManyAttempts)
	}

	// bcrypt выполняется и при неверном имени пользователя
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.admin.User)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.admin.PasswordHash, []byte(password))
	if !userOK || passErr != nil {
		a.limiter.Record(ip)
		log.Info("invalid credentials", sl.Err(passErr))

		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	a.limiter.Reset(ip)

	token, err := jwt.NewToken(a.admin.User, a.tokenSecret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin logged in successfully")

	return token, nil
}

// ParseToken возвращает имя администратора из действующего токена.
func (a *Auth) ParseToken(token string) (string, error) {
	const op = "auth.ParseToken"

	subject, err := jwt.ParseToken(token, a.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrUnauthorized, err)
	}
	if subject != a.admin.User {
		return "", fmt.Errorf("%s: %w: unknown subject", op, ErrUnauthorized)
	}

	return subject, nil
}
