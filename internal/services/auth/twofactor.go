package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/storage"
)

const (
	totpIssuer      = "Tillerstead"
	totpSkew        = 2
	backupCodeCount = 10
	qrSize          = 200
)

// ErrTwoFactorEnabled is returned when setup is requested for an enabled account
var ErrTwoFactorEnabled = errors.New("2FA already enabled")

// SecretData is returned from setup so the user can enrol an authenticator
type SecretData struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"`
}

// TwoFactorAuth manages TOTP enrolment and backup codes.
// NoSecret -> Pending (GenerateSecret) -> Enabled (Enable2FA) -> removed (Disable2FA).
type TwoFactorAuth struct {
	store storage.TwoFactorStore
	now   func() time.Time

	mu      sync.Mutex
	records map[string]*models.TwoFactorRecord
}

// NewTwoFactorAuth loads existing 2FA state from store
func NewTwoFactorAuth(ctx context.Context, store storage.TwoFactorStore) (*TwoFactorAuth, error) {
	t := &TwoFactorAuth{
		store:   store,
		now:     time.Now,
		records: make(map[string]*models.TwoFactorRecord),
	}

	recs, err := store.LoadTwoFactor(ctx)
	if err != nil {
		return nil, fmt.Errorf("load 2fa: %w", err)
	}
	for _, r := range recs {
		t.records[r.Username] = r
	}
	return t, nil
}

// GenerateSecret starts enrolment with a fresh pending secret
func (t *TwoFactorAuth) GenerateSecret(ctx context.Context, username string) (*SecretData, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: fmt.Sprintf("Tillerstead Admin (%s)", username),
		SecretSize:  20,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	qr, err := qrDataURL(key)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.records[username].Enabled() {
		return nil, ErrTwoFactorEnabled
	}

	rec := &models.TwoFactorRecord{Username: username, PendingSecret: key.Secret()}
	if err := t.store.SaveTwoFactor(ctx, rec); err != nil {
		return nil, fmt.Errorf("save 2fa: %w", err)
	}
	t.records[username] = rec

	return &SecretData{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     qr,
	}, nil
}

// VerifyToken checks token against the pending secret during setup and the
// permanent secret once enabled
func (t *TwoFactorAuth) VerifyToken(username, token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.verifyLocked(username, token)
}

// Enable2FA promotes the pending secret and issues backup codes
func (t *TwoFactorAuth) Enable2FA(ctx context.Context, username, token string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[username]
	if !rec.Pending() {
		if rec.Enabled() {
			return nil, ErrTwoFactorEnabled
		}
		return nil, ErrTwoFactorNotSetup
	}
	if !t.verifyLocked(username, token) {
		return nil, ErrInvalidTOTP
	}

	codes, err := generateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	next := &models.TwoFactorRecord{
		Username:    username,
		Secret:      rec.PendingSecret,
		BackupCodes: codes,
		EnabledAt:   &now,
	}
	if err := t.store.SaveTwoFactor(ctx, next); err != nil {
		return nil, fmt.Errorf("save 2fa: %w", err)
	}
	t.records[username] = next

	return append([]string(nil), codes...), nil
}

// Disable2FA removes all 2FA state after a valid token
func (t *TwoFactorAuth) Disable2FA(ctx context.Context, username, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.records[username]; !ok {
		return ErrTwoFactorNotSetup
	}
	if !t.verifyLocked(username, token) {
		return ErrInvalidTOTP
	}

	if err := t.store.DeleteTwoFactor(ctx, username); err != nil {
		return fmt.Errorf("delete 2fa: %w", err)
	}
	delete(t.records, username)
	return nil
}

// IsEnabled reports whether username has completed enrolment
func (t *TwoFactorAuth) IsEnabled(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[username].Enabled()
}

// VerifyBackupCode consumes code if it is valid and returns the codes left
func (t *TwoFactorAuth) VerifyBackupCode(ctx context.Context, username, code string) (int, bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[username]
	if !rec.Enabled() {
		return 0, false, nil
	}

	idx := -1
	for i, c := range rec.BackupCodes {
		if c == code {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(rec.BackupCodes), false, nil
	}

	next := *rec
	next.BackupCodes = append(append([]string(nil), rec.BackupCodes[:idx]...), rec.BackupCodes[idx+1:]...)
	if err := t.store.SaveTwoFactor(ctx, &next); err != nil {
		return len(rec.BackupCodes), false, fmt.Errorf("save 2fa: %w", err)
	}
	t.records[username] = &next

	return len(next.BackupCodes), true, nil
}

// RegenerateBackupCodes replaces the whole set after a valid token
func (t *TwoFactorAuth) RegenerateBackupCodes(ctx context.Context, username, token string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[username]
	if !rec.Enabled() {
		return nil, ErrTwoFactorNotSetup
	}
	if !t.verifyLocked(username, token) {
		return nil, ErrInvalidTOTP
	}

	codes, err := generateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, err
	}

	next := *rec
	next.BackupCodes = codes
	if err := t.store.SaveTwoFactor(ctx, &next); err != nil {
		return nil, fmt.Errorf("save 2fa: %w", err)
	}
	t.records[username] = &next

	return append([]string(nil), codes...), nil
}

// Status summarizes the enrolment state of username
func (t *TwoFactorAuth) Status(username string) models.TwoFactorStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[username]
	st := models.TwoFactorStatus{
		Enabled: rec.Enabled(),
		Pending: rec.Pending(),
	}
	if rec != nil {
		st.BackupCodesRemaining = len(rec.BackupCodes)
	}
	return st
}

func (t *TwoFactorAuth) verifyLocked(username, token string) bool {
	rec := t.records[username]
	if rec == nil {
		return false
	}

	secret := rec.Secret
	if !rec.Enabled() {
		secret = rec.PendingSecret
	}
	if secret == "" {
		return false
	}

	ok, err := totp.ValidateCustom(strings.TrimSpace(token), secret, t.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func generateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		h := strings.ToUpper(hex.EncodeToString(b))
		codes = append(codes, h[:4]+"-"+h[4:])
	}
	return codes, nil
}

func qrDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
