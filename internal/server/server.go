package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/handler"
	sessionmw "storefront-checkout-demo/internal/middleware"
)

type Server struct {
	echo              *echo.Echo
	log               *logrus.Logger
	gatherer          prometheus.Gatherer
	catalogHandler    *handler.CatalogHandler
	storefrontHandler *handler.StorefrontHandler
	paypalHandler     *handler.PaypalHandler
	depositHandler    *handler.DepositHandler
}

type Handlers struct {
	Catalog    *handler.CatalogHandler
	Storefront *handler.StorefrontHandler
	Paypal     *handler.PaypalHandler
	Deposit    *handler.DepositHandler
}

func NewServer(log *logrus.Logger, gatherer prometheus.Gatherer, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"session_id": sessionmw.SessionID(c),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:              e,
		log:               log,
		gatherer:          gatherer,
		catalogHandler:    h.Catalog,
		storefrontHandler: h.Storefront,
		paypalHandler:     h.Paypal,
		depositHandler:    h.Deposit,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.GET("/products", s.catalogHandler.ListProducts)
	api.GET("/products/:id", s.catalogHandler.GetProduct)

	// deposits are not tied to a storefront session
	api.POST("/deposits", s.depositHandler.CreateDeposit)

	session := api.Group("", sessionmw.SessionMiddleware())

	// -------- cart --------
	session.GET("/cart", s.storefrontHandler.GetView)
	session.POST("/cart/items", s.storefrontHandler.AddItem)
	session.PATCH("/cart/items/:id", s.storefrontHandler.ChangeQuantity)
	session.DELETE("/cart/items/:id", s.storefrontHandler.RemoveItem)
	session.DELETE("/cart", s.storefrontHandler.ClearCart)

	// -------- view / checkout --------
	session.GET("/view", s.storefrontHandler.GetView)
	session.POST("/view", s.storefrontHandler.Navigate)

	checkout := session.Group("/checkout")
	checkout.POST("/proceed", s.storefrontHandler.ProceedToCheckout)
	checkout.POST("/pay", s.storefrontHandler.Pay)
	checkout.POST("/redirect", s.storefrontHandler.StartProviderRedirect)
	checkout.GET("/provider", s.storefrontHandler.ProviderScreen)
	checkout.POST("/approve", s.storefrontHandler.Approve)
	checkout.POST("/cancel", s.storefrontHandler.Cancel)
	checkout.POST("/continue", s.storefrontHandler.ContinueShopping)
	checkout.POST("/return-to-store", s.storefrontHandler.ReturnToStore)
	checkout.GET("/return", s.storefrontHandler.ProviderReturn)

	// -------- paypal sdk --------
	paypal := session.Group("/paypal")
	paypal.GET("/client-id", s.paypalHandler.GetClientID)
	paypal.PUT("/client-id", s.paypalHandler.SaveClientID)
	paypal.POST("/client-id/validate", s.paypalHandler.ValidateClientID)
	paypal.GET("/sdk-url", s.paypalHandler.GetScriptURL)
	paypal.GET("/standard-payload", s.paypalHandler.GetStandardPayload)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	s.log.WithField("addr", address).Info("starting HTTP server")
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
