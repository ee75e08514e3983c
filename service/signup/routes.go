package signup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/boxable/subbox-server/cmd/models"
	"github.com/boxable/subbox-server/service/catalog"
	"github.com/boxable/subbox-server/service/payment"
	"github.com/boxable/subbox-server/service/subscription"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Response is the JSON body returned for every signup outcome.
type Response struct {
	Message string `json:"message"`
}

// Charger is the slice of the payment client the signup flow needs.
type Charger interface {
	Charge(ctx context.Context, charge payment.ChargeRequest) (payment.Result, error)
}

// signupRequest carries the form fields of POST /api/subscriptions. Every
// field is required; validation reports all missing fields at once rather
// than stopping at the first.
type signupRequest struct {
	Card        string `form:"card" validate:"required"`
	CVV         string `form:"cvv" validate:"required"`
	Expiration  string `form:"expiration" validate:"required"`
	BillingZip  string `form:"billing_zip" validate:"required"`
	Name        string `form:"name" validate:"required"`
	Address     string `form:"address" validate:"required"`
	ShippingZip string `form:"shipping_zip" validate:"required"`
	Product     string `form:"product" validate:"required"`
}

// Handler runs the signup pipeline: validate, normalize the expiration,
// price the box, charge the gateway, then record billing and subscription in
// one transaction. Side effects are strictly ordered; nothing is persisted
// before a successful charge and no charge is attempted before validation
// passes.
type Handler struct {
	prices   *catalog.PriceCatalog
	declines *catalog.ErrorCatalog
	gateway  Charger
	store    *subscription.Store
	validate *validator.Validate
}

// NewHandler wires the signup pipeline. Both catalogs must already be loaded;
// constructing the handler after the catalog load is what guarantees requests
// never observe an empty catalog.
func NewHandler(prices *catalog.PriceCatalog, declines *catalog.ErrorCatalog, gateway Charger, store *subscription.Store) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		prices:   prices,
		declines: declines,
		gateway:  gateway,
		store:    store,
		validate: v,
	}
}

// RegisterRoutes registers the signup routes.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/subscriptions", h.HandleCreateSubscription).Methods("POST")
}

// HandleCreateSubscription accepts one subscription signup.
func (h *Handler) HandleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form payload")
		return
	}

	req := signupRequest{
		Card:        r.FormValue("card"),
		CVV:         r.FormValue("cvv"),
		Expiration:  r.FormValue("expiration"),
		BillingZip:  r.FormValue("billing_zip"),
		Name:        r.FormValue("name"),
		Address:     r.FormValue("address"),
		ShippingZip: r.FormValue("shipping_zip"),
		Product:     r.FormValue("product"),
	}

	if missing := h.missingFields(req); len(missing) > 0 {
		respondWithError(w, http.StatusConflict, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	expiration, err := NormalizeExpiration(req.Expiration)
	if err != nil {
		respondWithError(w, http.StatusConflict, "Invalid expiration date")
		return
	}

	price, ok := h.prices.Price(req.Product)
	if !ok {
		respondWithError(w, http.StatusConflict, fmt.Sprintf("Unknown product %s", req.Product))
		return
	}

	result, err := h.gateway.Charge(r.Context(), payment.ChargeRequest{
		Amount:          price,
		CardNumber:      req.Card,
		CVV:             req.CVV,
		ExpirationMonth: expiration.Month,
		ExpirationYear:  expiration.Year,
		ZipCode:         req.BillingZip,
	})
	if err != nil {
		// The gateway's state is unknown here: the customer may or may not
		// have been charged. Never retry, never persist.
		log.WithFields(log.Fields{"box": req.Product, "error": err}).Error("Gateway transport failure")
		respondWithError(w, http.StatusInternalServerError,
			"We could not confirm the status of your payment. Please contact support before trying again.")
		return
	}

	if !result.Approved() {
		description := h.declines.Describe(result.Declined.Code)
		respondWithError(w, http.StatusConflict, "Your payment was declined: "+description)
		return
	}

	billing := &models.Billing{
		Token:      result.Token,
		CVV:        req.CVV,
		Expiration: expiration.Date(),
		Zip:        req.BillingZip,
	}
	sub := &models.Subscription{
		Name:     req.Name,
		BoxID:    req.Product,
		Address:  req.Address,
		Zip:      req.ShippingZip,
		Active:   true,
		Quantity: 1,
		Token:    result.Token,
	}

	if err := h.store.CreateWithBilling(billing, sub); err != nil {
		var already *subscription.AlreadySubscribedError
		if errors.As(err, &already) {
			// The duplicate attempt was already charged and the charge is not
			// reversed. "recieve" is misspelled in the message existing
			// clients match on.
			respondWithError(w, http.StatusConflict,
				fmt.Sprintf("You are already subscribed to %s. You will still recieve this product.", already.BoxID))
			return
		}
		log.WithFields(log.Fields{"name": req.Name, "box": req.Product, "error": err}).Error("Charged but failed to record subscription")
		respondWithError(w, http.StatusInternalServerError,
			"Your card was charged, but we could not save your subscription. Please place a new order.")
		return
	}

	log.WithFields(log.Fields{"name": req.Name, "box": req.Product}).Info("Subscription created")
	respondWithJSON(w, http.StatusCreated, Response{
		Message: fmt.Sprintf("Thank you for subscribing to %s!", req.Product),
	})
}

// missingFields returns the form names of every absent required field.
func (h *Handler) missingFields(req signupRequest) []string {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{"request"}
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, fieldError.Field())
	}
	return fields
}

// Helper function to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, Response{Message: message})
}

// Helper function to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
