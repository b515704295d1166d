package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/timetable-share/internal/application"
	"github.com/example/timetable-share/internal/appstore"
	"github.com/example/timetable-share/internal/availability"
	"github.com/example/timetable-share/internal/persistence"
	"github.com/example/timetable-share/internal/persistence/memory"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator(""),
		Location:    Taipei,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("")
	}
	if factory.Location == nil {
		factory.Location = Taipei
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ScheduleContext returns the default bell schedule evaluated in the factory's zone and clock.
func (f *ServiceFactory) ScheduleContext() application.ScheduleContext {
	return application.ScheduleContext{
		Schedule: availability.DefaultSchedule(),
		Location: f.Location,
		Now:      f.Clock.NowFunc(),
	}
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Store          *appstore.Store
	Cache          application.GridCache
	HashPassword   application.PasswordHasher
	VerifyPassword application.PasswordVerifier
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	return application.NewAuthServiceWithLogger(application.AuthServiceDeps{
		Accounts:       deps.Store,
		Sessions:       deps.Store,
		Grids:          deps.Store,
		Friends:        deps.Store,
		Cache:          deps.Cache,
		HashPassword:   deps.HashPassword,
		VerifyPassword: deps.VerifyPassword,
		IDGenerator:    f.IDGenerator.NextFunc(),
		TokenGenerator: f.IDGenerator.TokenFunc(),
		Now:            f.Clock.NowFunc(),
		SessionTTL:     deps.SessionTTL,
	}, deps.Logger)
}

// NewProfileService builds a profile service over store.
func (f *ServiceFactory) NewProfileService(store *appstore.Store) *application.ProfileService {
	return application.NewProfileService(store, f.Clock.NowFunc())
}

// NewTimetableService builds a timetable service over store.
func (f *ServiceFactory) NewTimetableService(store *appstore.Store, cache application.GridCache, logger *slog.Logger) *application.TimetableService {
	return application.NewTimetableServiceWithLogger(store, cache, f.ScheduleContext(), logger)
}

// NewFriendService builds a friend service over store.
func (f *ServiceFactory) NewFriendService(store *appstore.Store, cache application.GridCache, logger *slog.Logger) *application.FriendService {
	return application.NewFriendServiceWithLogger(store, store, store, cache, f.ScheduleContext(), 4, logger)
}

// Services bundles every application service over one backend.
type Services struct {
	Backend   persistence.Store
	Store     *appstore.Store
	Auth      *application.AuthService
	Profile   *application.ProfileService
	Timetable *application.TimetableService
	Friends   *application.FriendService
}

// NewMemoryServices wires all services to a fresh in-memory backend with a shared grid cache.
// Passwords are hashed with PlainPasswordHasher to keep tests fast.
func (f *ServiceFactory) NewMemoryServices(logger *slog.Logger) Services {
	return f.NewServices(memory.New(), logger)
}

// NewServices wires all services to backend.
func (f *ServiceFactory) NewServices(backend persistence.Store, logger *slog.Logger) Services {
	store := appstore.New(backend)
	cache := application.NewLocalGridCache(time.Minute, 0, f.Clock.NowFunc())
	return Services{
		Backend: backend,
		Store:   store,
		Auth: f.NewAuthService(AuthServiceDeps{
			Store:          store,
			Cache:          cache,
			HashPassword:   PlainPasswordHasher,
			VerifyPassword: PlainPasswordVerifier,
			Logger:         logger,
		}),
		Profile:   f.NewProfileService(store),
		Timetable: f.NewTimetableService(store, cache, logger),
		Friends:   f.NewFriendService(store, cache, logger),
	}
}

// PlainPasswordHasher is a reversible stand-in for Argon2id in tests.
func PlainPasswordHasher(password string) (string, error) {
	return "plain:" + password, nil
}

// PlainPasswordVerifier matches hashes produced by PlainPasswordHasher.
func PlainPasswordVerifier(hashed, password string) error {
	if hashed != "plain:"+password {
		return application.ErrInvalidCredentials
	}
	return nil
}
