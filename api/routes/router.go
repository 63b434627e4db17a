package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelarde/comanda-backend/api/controllers"
	webhookcontrollers "github.com/avelarde/comanda-backend/api/controllers/webhooks"
	"github.com/avelarde/comanda-backend/api/middleware"
	internalauth "github.com/avelarde/comanda-backend/internal/auth"
	"github.com/avelarde/comanda-backend/internal/bills"
	"github.com/avelarde/comanda-backend/internal/catalog"
	"github.com/avelarde/comanda-backend/internal/customers"
	"github.com/avelarde/comanda-backend/internal/notifications"
	"github.com/avelarde/comanda-backend/internal/orders"
	"github.com/avelarde/comanda-backend/internal/reservations"
	"github.com/avelarde/comanda-backend/internal/settings"
	"github.com/avelarde/comanda-backend/internal/tables"
	"github.com/avelarde/comanda-backend/internal/users"
	stripewebhook "github.com/avelarde/comanda-backend/internal/webhooks/stripe"
	"github.com/avelarde/comanda-backend/pkg/auth/session"
	"github.com/avelarde/comanda-backend/pkg/config"
	"github.com/avelarde/comanda-backend/pkg/db"
	"github.com/avelarde/comanda-backend/pkg/enums"
	"github.com/avelarde/comanda-backend/pkg/logger"
	"github.com/avelarde/comanda-backend/pkg/metrics"
	redisclient "github.com/avelarde/comanda-backend/pkg/redis"
	pkgstripe "github.com/avelarde/comanda-backend/pkg/stripe"
)

var (
	roleAdmin = string(enums.StaffRoleAdmin)

	allStaff     = []string{"admin", "chef", "waiter", "cashier"}
	floorStaff   = []string{"admin", "waiter", "cashier"}
	counterStaff = []string{"admin", "cashier"}
	kitchenStaff = []string{"admin", "chef"}
)

// StaffPolicy is the ordered role table for the staff API. More specific
// rules sit above the catch-alls so they win the first-match scan.
func StaffPolicy() *middleware.Policy {
	return middleware.NewPolicy([]middleware.Rule{
		{Pattern: "/api/v1/staff/users/*", Roles: []string{roleAdmin}},
		{Pattern: "/api/v1/staff/settings", Methods: []string{http.MethodPut}, Roles: []string{roleAdmin}},
		{Pattern: "/api/v1/staff/orders/{orderId}", Methods: []string{http.MethodDelete}, Roles: []string{roleAdmin}},
		{Pattern: "/api/v1/staff/orders/*", Roles: allStaff},
		{Pattern: "/api/v1/staff/menu/*", Roles: kitchenStaff},
		{Pattern: "/api/v1/staff/tables/*", Roles: floorStaff},
		{Pattern: "/api/v1/staff/reservations/*", Roles: floorStaff},
		{Pattern: "/api/v1/staff/customers/*", Roles: counterStaff},
		{Pattern: "/api/v1/staff/bills/*", Roles: counterStaff},
	})
}

// Services bundles everything the router mounts.
type Services struct {
	Auth          internalauth.Service
	Orders        orders.Service
	Catalog       catalog.Service
	Tables        tables.Service
	Reservations  reservations.Service
	Customers     customers.Service
	Bills         bills.Service
	Users         users.Service
	Settings      settings.Service
	Notifications notifications.Service

	StripeWebhook      *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
	StripeVerifier     pkgstripe.PaymentsClient
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	cachePinger redisclient.Pinger,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbPinger, cachePinger, logg))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(svcs.StripeWebhook, svcs.StripeVerifier, svcs.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(svcs.Auth, logg))
		r.Post("/refresh", controllers.Refresh(svcs.Auth, logg))
		r.Post("/logout", controllers.Logout(svcs.Auth, logg))
	})

	// Public storefront surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/menu", controllers.ListMenu(svcs.Catalog, logg))
		r.Get("/menu/categories", controllers.ListCategories(svcs.Catalog, logg))
		r.Get("/menu/{itemId}", controllers.GetMenuItem(svcs.Catalog, logg))
		r.Get("/settings", controllers.GetSettings(svcs.Settings, logg))

		r.Post("/orders", controllers.CreateOrder(svcs.Orders, logg))
		r.Post("/orders/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
		r.Post("/orders/{orderId}/deliver", controllers.ConfirmDelivery(svcs.Orders, logg))

		r.Post("/reservations", controllers.CreateReservation(svcs.Reservations, logg))
		r.Post("/contact", controllers.ContactForm(svcs.Notifications, logg))
	})

	r.Route("/api/v1/staff", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(StaffPolicy().Enforce(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
			r.Patch("/{orderId}", controllers.PatchOrder(svcs.Orders, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(svcs.Orders, logg))
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", controllers.ListMenu(svcs.Catalog, logg))
			r.Post("/", controllers.CreateMenuItem(svcs.Catalog, logg))
			r.Put("/{itemId}", controllers.UpdateMenuItem(svcs.Catalog, logg))
			r.Delete("/{itemId}", controllers.DeleteMenuItem(svcs.Catalog, logg))
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(svcs.Catalog, logg))
				r.Post("/", controllers.CreateCategory(svcs.Catalog, logg))
				r.Put("/{categoryId}", controllers.UpdateCategory(svcs.Catalog, logg))
				r.Delete("/{categoryId}", controllers.DeleteCategory(svcs.Catalog, logg))
			})
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", controllers.ListTables(svcs.Tables, logg))
			r.Post("/", controllers.CreateTable(svcs.Tables, logg))
			r.Put("/{tableId}", controllers.UpdateTable(svcs.Tables, logg))
			r.Delete("/{tableId}", controllers.DeleteTable(svcs.Tables, logg))
			r.Post("/{tableId}/orders", controllers.OpenTableOrder(svcs.Tables, logg))
			r.Get("/orders", controllers.ListTableOrders(svcs.Tables, logg))
			r.Post("/orders/{orderId}/items", controllers.AddTableOrderItems(svcs.Tables, logg))
			r.Post("/orders/{orderId}/close", controllers.CloseTableOrder(svcs.Tables, logg))
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", controllers.ListReservations(svcs.Reservations, logg))
			r.Get("/{reservationId}", controllers.GetReservation(svcs.Reservations, logg))
			r.Patch("/{reservationId}", controllers.PatchReservation(svcs.Reservations, logg))
			r.Delete("/{reservationId}", controllers.DeleteReservation(svcs.Reservations, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(svcs.Customers, logg))
			r.Post("/", controllers.CreateCustomer(svcs.Customers, logg))
			r.Get("/{customerId}", controllers.GetCustomer(svcs.Customers, logg))
			r.Put("/{customerId}", controllers.UpdateCustomer(svcs.Customers, logg))
			r.Delete("/{customerId}", controllers.DeleteCustomer(svcs.Customers, logg))
			r.Post("/{customerId}/dues", controllers.RecordDuePayment(svcs.Customers, logg))
			r.Get("/{customerId}/dues", controllers.ListDuePayments(svcs.Customers, logg))
		})

		r.Route("/bills", func(r chi.Router) {
			r.Get("/", controllers.ListBills(svcs.Bills, logg))
			r.Post("/", controllers.CreateBill(svcs.Bills, logg))
			r.Get("/{billId}", controllers.GetBill(svcs.Bills, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(svcs.Users, logg))
			r.Post("/", controllers.CreateUser(svcs.Users, logg))
			r.Get("/{userId}", controllers.GetUser(svcs.Users, logg))
			r.Put("/{userId}", controllers.UpdateUser(svcs.Users, logg))
			r.Delete("/{userId}", controllers.DeleteUser(svcs.Users, logg))
		})

		r.Put("/settings", controllers.UpdateSettings(svcs.Settings, logg))
	})

	return r
}
