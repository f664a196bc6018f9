package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gamenight/tracker/internal/config"
	"github.com/gamenight/tracker/internal/modules/auth"
	authcommands "github.com/gamenight/tracker/internal/modules/auth/commands"
	authdomain "github.com/gamenight/tracker/internal/modules/auth/domain"
	"github.com/gamenight/tracker/internal/modules/core"
	friendcommands "github.com/gamenight/tracker/internal/modules/friend/commands"
	friendqueries "github.com/gamenight/tracker/internal/modules/friend/queries"
	"github.com/gamenight/tracker/internal/modules/notification"
	notificationcommands "github.com/gamenight/tracker/internal/modules/notification/commands"
	notificationqueries "github.com/gamenight/tracker/internal/modules/notification/queries"
	"github.com/gamenight/tracker/internal/modules/session"
	sessioncommands "github.com/gamenight/tracker/internal/modules/session/commands"
	sessiondomain "github.com/gamenight/tracker/internal/modules/session/domain"
	sessionqueries "github.com/gamenight/tracker/internal/modules/session/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/migrate-go"
	"github.com/go-chi/chi"
	_ "github.com/lib/pq"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// HTTPServer is the composition root. It owns the database handle,
// registers every mediator handler, and mounts the HTTP routes.
type HTTPServer struct {
	server *http.Server
	db     *sql.DB
}

func NewHTTPServer(config config.Config) (*HTTPServer, error) {
	baseCtx := context.Background()

	core.SetLogger(config.Logger)

	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := migrate.Run(baseCtx, db, config.MigrationsPath); err != nil {
		return nil, err
	}

	mediator.RegisterPipelineBehavior(&core.RequestLoggingBehavior{Logger: config.Logger})
	mediator.RegisterPipelineBehavior(&core.HandlerErrorLoggingBehavior{Logger: config.Logger})
	mediator.RegisterPipelineBehavior(&core.RequestValidationBehavior{})

	repository := session.NewRepository()
	ledger := notification.NewLedger()
	emailClient := core.NewEmailClient(config.Email.Host, config.Email.Username, config.Email.Password)
	passwordHasher := authdomain.NewSHA256PasswordHasher()

	// handler registration

	// session

	createSessionHandler := sessioncommands.NewCreateSessionCommandHandler(
		db,
		repository,
		ledger,
		emailClient,
		config.Email.Sender,
	)
	err = mediator.RegisterRequestHandler[sessioncommands.CreateSessionCommand, sessiondomain.Session](
		createSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	editSessionHandler := sessioncommands.NewEditSessionCommandHandler(db, repository, ledger)
	err = mediator.RegisterRequestHandler[sessioncommands.EditSessionCommand, sessiondomain.Session](
		editSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	deleteSessionHandler := sessioncommands.NewDeleteSessionCommandHandler(db, repository)
	err = mediator.RegisterRequestHandler[sessioncommands.DeleteSessionCommand, core.Unit](
		deleteSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	confirmSessionHandler := sessioncommands.NewConfirmSessionCommandHandler(db, repository, ledger)
	err = mediator.RegisterRequestHandler[sessioncommands.ConfirmSessionCommand, sessiondomain.Session](
		confirmSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	declineSessionHandler := sessioncommands.NewDeclineSessionCommandHandler(db, repository, ledger)
	err = mediator.RegisterRequestHandler[sessioncommands.DeclineSessionCommand, sessiondomain.Session](
		declineSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	remindPlayersHandler := sessioncommands.NewRemindPlayersCommandHandler(
		db,
		repository,
		ledger,
		emailClient,
		config.Email.Sender,
		config.ReminderCooldown,
	)
	err = mediator.RegisterRequestHandler[sessioncommands.RemindPlayersCommand, sessioncommands.RemindPlayersResponse](
		remindPlayersHandler,
	)
	if err != nil {
		return nil, err
	}

	getSessionsHandler := sessionqueries.NewGetSessionsQueryHandler(db, repository)
	err = mediator.RegisterRequestHandler[sessionqueries.GetSessionsQuery, []sessiondomain.Session](
		getSessionsHandler,
	)
	if err != nil {
		return nil, err
	}

	getSessionHandler := sessionqueries.NewGetSessionQueryHandler(db, repository)
	err = mediator.RegisterRequestHandler[sessionqueries.GetSessionQuery, sessiondomain.Session](
		getSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	// notification

	markReadHandler := notificationcommands.NewMarkNotificationReadCommandHandler(db)
	err = mediator.RegisterRequestHandler[notificationcommands.MarkNotificationReadCommand, core.Unit](
		markReadHandler,
	)
	if err != nil {
		return nil, err
	}

	markAllReadHandler := notificationcommands.NewMarkAllNotificationsReadCommandHandler(db)
	err = mediator.RegisterRequestHandler[notificationcommands.MarkAllNotificationsReadCommand, notificationcommands.MarkAllNotificationsReadResponse](
		markAllReadHandler,
	)
	if err != nil {
		return nil, err
	}

	listNotificationsHandler := notificationqueries.NewListNotificationsQueryHandler(db)
	err = mediator.RegisterRequestHandler[notificationqueries.ListNotificationsQuery, notificationqueries.ListNotificationsResponse](
		listNotificationsHandler,
	)
	if err != nil {
		return nil, err
	}

	// friend

	sendFriendRequestHandler := friendcommands.NewSendFriendRequestCommandHandler(db, repository, ledger)
	err = mediator.RegisterRequestHandler[friendcommands.SendFriendRequestCommand, core.Unit](
		sendFriendRequestHandler,
	)
	if err != nil {
		return nil, err
	}

	respondFriendRequestHandler := friendcommands.NewRespondFriendRequestCommandHandler(db, repository, ledger)
	err = mediator.RegisterRequestHandler[friendcommands.RespondFriendRequestCommand, friendcommands.RespondFriendRequestResponse](
		respondFriendRequestHandler,
	)
	if err != nil {
		return nil, err
	}

	listFriendsHandler := friendqueries.NewListFriendsQueryHandler(db)
	err = mediator.RegisterRequestHandler[friendqueries.ListFriendsQuery, []sessiondomain.UserRef](
		listFriendsHandler,
	)
	if err != nil {
		return nil, err
	}

	pendingRequestsHandler := friendqueries.NewPendingRequestsQueryHandler(db)
	err = mediator.RegisterRequestHandler[friendqueries.PendingRequestsQuery, []sessiondomain.UserRef](
		pendingRequestsHandler,
	)
	if err != nil {
		return nil, err
	}

	sentRequestsHandler := friendqueries.NewSentRequestsQueryHandler(db)
	err = mediator.RegisterRequestHandler[friendqueries.SentRequestsQuery, []friendqueries.SentRequestModel](
		sentRequestsHandler,
	)
	if err != nil {
		return nil, err
	}

	// auth

	registerHandler := authcommands.NewRegisterCommandHandler(db, passwordHasher)
	err = mediator.RegisterRequestHandler[authcommands.RegisterCommand, core.Unit](
		registerHandler,
	)
	if err != nil {
		return nil, err
	}

	loginHandler := authcommands.NewLoginCommandHandler(db, passwordHasher)
	err = mediator.RegisterRequestHandler[authcommands.LoginCommand, authcommands.LoginResponse](
		loginHandler,
	)
	if err != nil {
		return nil, err
	}

	logoutHandler := authcommands.NewLogoutCommandHandler(db)
	err = mediator.RegisterRequestHandler[authcommands.LogoutCommand, core.Unit](
		logoutHandler,
	)
	if err != nil {
		return nil, err
	}

	// http

	router := chi.NewRouter()
	router.Use(core.CorrelationIDHTTPMiddleware)

	router.Post("/auth/register", authcommands.HandleRegister)
	router.Post("/auth/login", authcommands.HandleLogin)
	router.Post("/auth/logout", authcommands.HandleLogout)

	router.Group(func(r chi.Router) {
		r.Use(auth.AuthenticationMiddleware(db))

		r.Get("/sessions", sessionqueries.HandleGetSessions)
		r.Post("/sessions", sessioncommands.HandleCreateSession)
		r.Get("/sessions/{id}", sessionqueries.HandleGetSession)
		r.Put("/sessions/{id}", sessioncommands.HandleEditSession)
		r.Delete("/sessions/{id}", sessioncommands.HandleDeleteSession)

		r.Post("/sessions/{id}/confirm", sessioncommands.HandleConfirmSession)
		r.Post("/sessions/{id}/decline", sessioncommands.HandleDeclineSession)
		r.Post("/sessions/{id}/remind", sessioncommands.HandleRemindPlayers)

		r.Get("/friends/notifications", notificationqueries.HandleListNotifications)
		r.Post("/friends/notifications/{id}/read", notificationcommands.HandleMarkNotificationRead)
		r.Put("/friends/notifications/{id}/read", notificationcommands.HandleMarkNotificationRead)
		r.Post("/friends/notifications/read-all", notificationcommands.HandleMarkAllNotificationsRead)

		r.Post("/friends/send", friendcommands.HandleSendFriendRequest)
		r.Post("/friends/respond", friendcommands.HandleRespondFriendRequest)
		r.Get("/friends/list/{id}", friendqueries.HandleListFriends)
		r.Get("/friends/requests", friendqueries.HandlePendingRequests)
		r.Get("/friends/sent", friendqueries.HandleSentRequests)
	})

	server := &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(config.Port)),
		Handler: router,
	}

	return &HTTPServer{server: server, db: db}, nil
}

func (s *HTTPServer) Start() error {
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}

	return s.db.Close()
}
