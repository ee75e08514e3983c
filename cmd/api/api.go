package api

import (
	"net/http"
	"os"
	"time"

	"github.com/boxable/subbox-server/service/catalog"
	"github.com/boxable/subbox-server/service/payment"
	"github.com/boxable/subbox-server/service/signup"
	"github.com/boxable/subbox-server/service/subscription"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	// Catalogs are loaded before any handler exists, so a request can never
	// observe a partially populated catalog.
	prices, err := catalog.LoadPriceCatalog(s.db)
	if err != nil {
		return err
	}
	declines, err := catalog.LoadErrorCatalog(s.db)
	if err != nil {
		return err
	}
	log.Printf("Catalog loaded: %d boxes", prices.Len())

	gatewayURL := os.Getenv("FAKEPAY_URL")
	if gatewayURL == "" {
		gatewayURL = "https://www.fakepay.io/purchase"
	}
	gateway := payment.NewClient(gatewayURL, os.Getenv("FAKEPAY_API_KEY"))

	store := subscription.NewStore(s.db)

	router := mux.NewRouter()

	router.HandleFunc("/", handleRoot).Methods("GET")

	subrouter := router.PathPrefix("/api").Subrouter()

	signupHandler := signup.NewHandler(prices, declines, gateway, store)
	signupHandler.RegisterRoutes(subrouter)

	// CORS wraps the router from outside so 404 and 405 responses carry the
	// headers too; mux middleware only runs for matched routes.
	handler := handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, corsMiddleware(router)))

	server := &http.Server{
		Addr:         s.address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Println("Server running at", s.address)
	return server.ListenAndServe()
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("Hello World!"))
}

// corsMiddleware attaches permissive cross-origin headers to every response,
// matching what browser clients of the legacy service expect.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
		next.ServeHTTP(w, r)
	})
}
