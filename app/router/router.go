package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/app/controller"
	"github.com/Uz11ps/bototelgara/app/middleware"
)

type Controllers struct {
	Session     *controller.SessionController
	Cart        *controller.CartController
	Menu        *controller.MenuController
	Composition *controller.CompositionController
	Admin       *controller.AdminController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// NewRouter registers every route. Cart routes require a session token,
// /admin routes require Telegram initData signed for an admin.
func NewRouter(controllers *Controllers, tokens *middleware.SessionTokens, adminAuth *middleware.InitDataVerifier, admins middleware.AdminChecker, logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	r.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)

	// Public guest routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", controllers.Session.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/menu", controllers.Menu.GetMenu).Methods(http.MethodGet)
	api.HandleFunc("/menu/print", controllers.Menu.PrintMenu).Methods(http.MethodGet)
	api.HandleFunc("/menu/{id:[0-9]+}/image", controllers.Menu.GetMenuImage).Methods(http.MethodGet)

	// Session routes
	guest := api.NewRoute().Subrouter()
	guest.Use(tokens.Middleware)
	guest.HandleFunc("/cart", controllers.Cart.GetCart).Methods(http.MethodGet)
	guest.HandleFunc("/cart", controllers.Cart.ClearCart).Methods(http.MethodDelete)
	guest.HandleFunc("/cart/items", controllers.Cart.AddItem).Methods(http.MethodPost)
	guest.HandleFunc("/cart/items/{id:[0-9]+}", controllers.Cart.UpdateItem).Methods(http.MethodPatch)
	guest.HandleFunc("/cart/open", controllers.Cart.OpenCart).Methods(http.MethodPost)
	guest.HandleFunc("/cart/close", controllers.Cart.CloseCart).Methods(http.MethodPost)
	guest.HandleFunc("/checkout", controllers.Cart.Checkout).Methods(http.MethodPost)

	// Admin routes
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin(adminAuth, admins, logger))
	admin.HandleFunc("/menu/drafts", controllers.Composition.OpenDraft).Methods(http.MethodPost)
	admin.HandleFunc("/menu/drafts/{id}", controllers.Composition.GetDraft).Methods(http.MethodGet)
	admin.HandleFunc("/menu/drafts/{id}", controllers.Composition.CancelDraft).Methods(http.MethodDelete)
	admin.HandleFunc("/menu/drafts/{id}/ingredients", controllers.Composition.AddIngredient).Methods(http.MethodPost)
	admin.HandleFunc("/menu/drafts/{id}/ingredients/{index:[0-9]+}", controllers.Composition.RemoveIngredient).Methods(http.MethodDelete)
	admin.HandleFunc("/menu/drafts/{id}/save", controllers.Composition.SaveDraft).Methods(http.MethodPost)
	admin.HandleFunc("/menu/pdf", controllers.Admin.GetMenuPDF).Methods(http.MethodGet)
	admin.HandleFunc("/menu/photos/sync", controllers.Admin.SyncPhotos).Methods(http.MethodPost)
	admin.HandleFunc("/cameras/{id}/snapshot", controllers.Admin.GetCameraSnapshot).Methods(http.MethodGet)

	return r
}
