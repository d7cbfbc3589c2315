// file: router.go
package main

import (
	"html/template"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"ticket-gate/apiclient"
	"ticket-gate/config"
	"ticket-gate/controllers"
	"ticket-gate/metrics"
	"ticket-gate/middleware"
	"ticket-gate/services"
	"ticket-gate/web"
	"ticket-gate/websocket"
)

// sessionCookieName names the cookie that stores the client session.
const sessionCookieName = "gate_session"

// dependencies are the collaborators the router is built from.
type dependencies struct {
	Recorder   *metrics.Recorder
	HTTPClient *http.Client
	// Templates defaults to the embedded pages.
	Templates *template.Template
	// QREncoder renders development QR codes; nil uses go-qrcode.
	QREncoder services.QRCodeEncoder
}

// newClientFactory binds every API client to the configured backend.
func newClientFactory(cfg *config.Config, deps dependencies) apiclient.Factory {
	return func(sess apiclient.Session, nav apiclient.Navigator) *apiclient.Client {
		return apiclient.New(cfg.TicketingAPIURL, sess, nav,
			apiclient.WithHTTPClient(deps.HTTPClient),
			apiclient.WithObserver(deps.Recorder),
			apiclient.WithUserAgent("ticket-gate"),
		)
	}
}

// setupRouter wires middleware, templates and every route.
func setupRouter(cfg *config.Config, deps dependencies) (*gin.Engine, error) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: cfg.APITimeout}
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.New(nil)
	}
	if deps.Templates == nil {
		tmpl, err := web.Templates()
		if err != nil {
			return nil, err
		}
		deps.Templates = tmpl
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
		}))
	}

	hashKey, blockKey, err := cfg.SessionKeys()
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(hashKey, blockKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})

	newClient := newClientFactory(cfg, deps)
	router.Use(sessions.Sessions(sessionCookieName, store), middleware.Authenticate(newClient))

	router.SetHTMLTemplate(deps.Templates)
	router.StaticFS("/static", http.FS(web.Static()))

	// Public routes
	router.GET("/health", controllers.Health)
	router.GET("/metrics", gin.WrapH(deps.Recorder.Handler()))

	auth := controllers.NewAuthController(newClient, cfg.AdminUsername)
	router.GET("/login", auth.ShowLoginPage)
	router.POST("/login", auth.PerformLogin)
	router.GET("/register", auth.ShowRegisterPage)
	router.POST("/register", auth.PerformRegister)
	router.GET("/logout", auth.Logout)
	router.GET("/", controllers.Index)

	// Scanner: any authenticated user
	scan := controllers.NewScannerController(websocket.Options{
		NewClient:      newClient,
		DisplayWindow:  cfg.ResultDisplay,
		AutoRearm:      cfg.AutoRearm,
		Observer:       deps.Recorder,
		Gauge:          deps.Recorder,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	scanner := router.Group("/scanner", middleware.AuthRequired)
	{
		scanner.GET("", scan.ShowScanner)
		scanner.GET("/ws", scan.ScanSocket)
		scanner.POST("/scan", scan.Scan)
	}

	transfers := router.Group("/transfers", middleware.AuthRequired)
	{
		transfers.GET("", controllers.ListPendingTransfers)
		transfers.POST("", controllers.InitiateTransfer)
		transfers.GET("/:id", controllers.GetTransfer)
		transfers.POST("/:id/accept", controllers.AcceptTransfer)
		transfers.POST("/:id/reject", controllers.RejectTransfer)
	}

	// Dashboard: administrators only
	admin := controllers.NewAdminController(deps.QREncoder)
	dashboard := router.Group("/dashboard", middleware.AdminRequired(cfg.AdminUsername))
	{
		dashboard.GET("", admin.Dashboard)
		dashboard.POST("/concerts", admin.CreateConcert)
		dashboard.POST("/concerts/:id", admin.UpdateConcert)
		dashboard.GET("/concerts/:id/delete", admin.ConfirmDeleteConcert)
		dashboard.POST("/concerts/:id/delete", admin.DeleteConcert)
		dashboard.POST("/concerts/:id/tickets", admin.CreateTicket)
		dashboard.POST("/concerts/:id/tickets/batch", admin.GenerateBatch)
		dashboard.GET("/concerts/:id/qr-codes.zip", admin.DownloadConcertQRCodes)
		dashboard.GET("/tickets/:id", admin.TicketDetail)
		dashboard.GET("/tickets/:id/qr.png", admin.TicketQR)
		dashboard.POST("/tickets/:id/sold", admin.MarkSold)
		dashboard.GET("/tickets/:id/delete", admin.ConfirmDeleteTicket)
		dashboard.POST("/tickets/:id/delete", admin.DeleteTicket)
	}

	return router, nil
}
