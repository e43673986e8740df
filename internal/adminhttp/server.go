package adminhttp

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/internal/app"
)

const (
	defaultRequestTimeout = 10 * time.Second
	readTimeout           = 15 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 90 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Directory is what the server reads directly from the engine: admin credentials and single records.
type Directory interface {
	AuthenticateAdmin(ctx context.Context, username, password string) (circulation.Admin, error)
	GetBook(ctx context.Context, id int64) (circulation.Book, error)
	GetStudent(ctx context.Context, id int64) (circulation.Student, error)
	GetEntry(ctx context.Context, logID int64) (circulation.IssueLog, error)
}

// Server is the admin HTTP surface.
type Server struct {
	app            *fiber.App
	directory      Directory
	handlers       *app.HandlerBundle
	sessions       *session.Store
	validate       *validator.Validate
	logger         circulation.ContextualLogger
	now            func() time.Time
	requestTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs every request at info and every server error at error.
func WithLogger(logger circulation.ContextualLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock replaces time.Now for issue and return dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store *session.Store) Option {
	return func(s *Server) {
		s.sessions = store
	}
}

// WithRequestTimeout bounds the context every handler runs with.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = timeout
	}
}

// NewServer creates a Server with all routes registered.
func NewServer(directory Directory, handlers *app.HandlerBundle, options ...Option) *Server {
	s := &Server{
		directory:      directory,
		handlers:       handlers,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		now:            time.Now,
		requestTimeout: defaultRequestTimeout,
	}

	for _, option := range options {
		option(s)
	}

	if s.sessions == nil {
		s.sessions = session.New()
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "library-circulation",
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           idleTimeout,
	})

	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(s.withRequestContext)
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	s.app.Post("/login", s.login)
	s.app.Post("/logout", s.logout)

	admin := s.app.Group("", s.requireAdmin)

	admin.Get("/books", s.listBooks)
	admin.Post("/books", s.addBook)
	admin.Delete("/books/:id", s.removeBook)

	admin.Get("/students", s.listStudents)
	admin.Post("/students", s.registerStudent)
	admin.Delete("/students/:id", s.removeStudent)

	admin.Post("/issues", s.issueBook)
	admin.Get("/issues/open", s.openIssues)
	admin.Get("/issues/history", s.loanHistory)
	admin.Get("/issues/export.csv", s.exportIssueLogs)
	admin.Post("/issues/:id/return", s.returnBook)

	admin.Get("/stats", s.stats)
}

// App exposes the fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for running requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
