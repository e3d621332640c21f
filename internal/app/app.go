// Package app wires configuration, storage and services into a runnable
// admin server
package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/calculator"
	"github.com/tillerstead/admin/internal/config"
	"github.com/tillerstead/admin/internal/handlers"
	"github.com/tillerstead/admin/internal/middleware"
	"github.com/tillerstead/admin/internal/project"
	"github.com/tillerstead/admin/internal/services/audit"
	"github.com/tillerstead/admin/internal/services/auth"
	"github.com/tillerstead/admin/internal/services/health"
	"github.com/tillerstead/admin/internal/services/notify"
	"github.com/tillerstead/admin/internal/services/security"
	"github.com/tillerstead/admin/internal/storage"
)

// DataVersion is stamped on the project data file and exports
const DataVersion = "2.0.0"

// HealthInterval is how often the monitor samples memory and disk
const HealthInterval = 30 * time.Second

const (
	apiLimitMessage    = "Too many requests from this IP, please try again later."
	authLimitMessage   = "Too many login attempts, please try again after 15 minutes."
	modifyLimitMessage = "Too many modification requests, please slow down."
)

// App holds every long-lived service. Fields are exported for the CLI.
type App struct {
	Config *config.Config
	Log    *zap.Logger

	DB         *storage.DB
	Users      *auth.UserManager
	Sessions   *auth.SessionManager
	TwoFactor  *auth.TwoFactorAuth
	Roles      *auth.RoleManager
	Auth       *auth.Service
	Audit      *audit.Logger
	APIKeys    *security.APIKeyManager
	IPFilter   *security.IPFilter
	BruteForce *security.BruteForce
	Calculator *calculator.HybridCalculator
	Projects   *project.Store
	Inbox      *notify.InAppNotifier
	Email      *notify.EmailNotifier
	Health     *health.Monitor

	apiLimit    *security.RateLimiter
	authLimit   *security.RateLimiter
	modifyLimit *security.RateLimiter

	// GeneratedAdminPassword is set when the admin account was seeded
	// without ADMIN_PASSWORD
	GeneratedAdminPassword string
}

type stores struct {
	users     storage.UserStore
	apiKeys   storage.APIKeyStore
	twoFactor storage.TwoFactorStore
}

// New builds the application. Close releases what it opened, including on
// a partial failure.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (a *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a = &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.Close())
			a = nil
		}
	}()

	st, err := a.openStores(ctx)
	if err != nil {
		return a, err
	}

	a.Users, err = auth.NewUserManager(ctx, st.users, log)
	if err != nil {
		return a, fmt.Errorf("load users: %w", err)
	}
	a.TwoFactor, err = auth.NewTwoFactorAuth(ctx, st.twoFactor)
	if err != nil {
		return a, fmt.Errorf("load 2fa: %w", err)
	}
	a.APIKeys, err = security.NewAPIKeyManager(ctx, st.apiKeys, cfg.APIKeyPepper, log)
	if err != nil {
		return a, fmt.Errorf("load api keys: %w", err)
	}

	a.GeneratedAdminPassword, err = a.Users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return a, err
	}

	a.Roles = auth.NewRoleManager()
	a.defineRoles()
	a.Roles.LoadAssignments(a.Users.ListUsers())

	a.Sessions = auth.NewSessionManager(cfg.SessionIdleTimeout, log)
	a.BruteForce = security.NewBruteForce(security.BruteForceConfig{
		MaxAttempts: cfg.BruteForce.MaxAttempts,
		Window:      cfg.BruteForce.Window,
		Lockout:     cfg.BruteForce.Lockout,
	})
	a.IPFilter = security.NewIPFilter(cfg.IPWhitelist, cfg.IPBlacklist)

	a.Email, err = notify.NewEmailNotifier(notify.EmailConfig{
		Enabled:    cfg.EmailEnabled,
		From:       cfg.EmailFrom,
		AdminEmail: cfg.AdminEmail,
	}, notify.NewSMTPSender(cfg.SMTP), log)
	if err != nil {
		return a, err
	}
	a.Email.SetRecipientLookup(func(username string) (string, bool) {
		u, ok := a.Users.GetUser(username)
		return u.Email, ok && u.Email != ""
	})
	a.Inbox = notify.NewInAppNotifier(notify.DefaultMaxNotifications)

	a.Audit = audit.New(cfg.Path("logs", "audit.log"), log)
	a.Audit.SetNotifier(notify.Fanout{a.Email, a.Inbox})

	a.Auth = auth.NewService(auth.Deps{
		Users:      a.Users,
		Sessions:   a.Sessions,
		TwoFactor:  a.TwoFactor,
		BruteForce: a.BruteForce,
		Audit:      a.Audit,
		Signer:     auth.NewCookieSigner(cfg.SessionSecret, cfg.SessionIdleTimeout),
		Notifier:   a.Email,
		Log:        log,
	})

	a.Calculator = calculator.NewHybridCalculator(calculator.NewRegistry(), cfg.ToolkitAPIURL, log)
	a.Projects, err = project.Open(cfg.Path("data", project.DataFile), DataVersion)
	if err != nil {
		return a, fmt.Errorf("open projects: %w", err)
	}

	a.Health = health.NewMonitor(cfg.DataDir, HealthInterval, log)

	a.apiLimit = security.NewRateLimiter(cfg.RateLimits.API.Max, cfg.RateLimits.API.Window, apiLimitMessage)
	a.authLimit = security.NewRateLimiter(cfg.RateLimits.Auth.Max, cfg.RateLimits.Auth.Window, authLimitMessage)
	a.modifyLimit = security.NewRateLimiter(cfg.RateLimits.Modify.Max, cfg.RateLimits.Modify.Window, modifyLimitMessage)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.Config.StorageDriver == "sqlite" {
		db, err := storage.New(a.Config.DatabaseURL)
		if err != nil {
			return stores{}, err
		}
		a.DB = db
		if err := db.Migrate(ctx); err != nil {
			return stores{}, err
		}
		return stores{
			users:     storage.NewUserRepository(db),
			apiKeys:   storage.NewAPIKeyRepository(db),
			twoFactor: storage.NewTwoFactorRepository(db),
		}, nil
	}

	return stores{
		users:     storage.NewFileUserStore(a.Config.Path("config", "users.json")),
		apiKeys:   storage.NewFileAPIKeyStore(a.Config.Path("config", "api-keys.json")),
		twoFactor: storage.NewFileTwoFactorStore(a.Config.Path("config", "2fa.json")),
	}, nil
}

// defineRoles adds the roles from the config overlay. Redefining a seed role
// is skipped with a warning.
func (a *App) defineRoles() {
	names := make([]string, 0, len(a.Config.Roles))
	for name := range a.Config.Roles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := a.Roles.CreateRole(name, a.Config.Roles[name], "Custom role"); err != nil {
			a.Log.Warn("skipping configured role", zap.String("role", name), zap.Error(err))
		}
	}
}

// Handler returns the full HTTP stack
func (a *App) Handler() http.Handler {
	guard := middleware.NewAuth(a.Auth, a.APIKeys, a.Roles, a.TwoFactor, a.Audit)
	h := handlers.New(handlers.Deps{
		Config:     a.Config,
		Log:        a.Log,
		Auth:       a.Auth,
		Users:      a.Users,
		Sessions:   a.Sessions,
		TwoFactor:  a.TwoFactor,
		Roles:      a.Roles,
		Audit:      a.Audit,
		APIKeys:    a.APIKeys,
		IPFilter:   a.IPFilter,
		BruteForce: a.BruteForce,
		Calculator: a.Calculator,
		Projects:   a.Projects,
		Inbox:      a.Inbox,
		Mail:       a.Email,
		Health:     a.Health,
	})
	mux := h.Routes(handlers.Guards{Auth: guard, AuthLimit: a.authLimit})

	return middleware.Chain(
		mux,
		middleware.Recover(a.Log),
		middleware.RequestID,
		middleware.Logger(a.Log),
		middleware.SecurityHeaders,
		middleware.IPFilter(a.IPFilter),
		middleware.RecordRequests(a.Health),
		middleware.RateLimit(a.apiLimit),
		middleware.ModifyRateLimit(a.modifyLimit),
		middleware.Audit(a.Audit),
	)
}

// Close stops background loops and closes the database
func (a *App) Close() error {
	for _, rl := range []*security.RateLimiter{a.apiLimit, a.authLimit, a.modifyLimit} {
		if rl != nil {
			rl.Close()
		}
	}
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.Health != nil {
		a.Health.Close()
	}

	var err error
	if a.DB != nil {
		err = multierr.Append(err, a.DB.Close())
	}
	if a.Log != nil {
		// stderr sync fails on some terminals
		_ = a.Log.Sync()
	}
	return err
}
