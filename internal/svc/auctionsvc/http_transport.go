package auctionsvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/carauction/internal/domain"
	"github.com/mkrupp/carauction/internal/infra/logging"
	http_ "github.com/mkrupp/carauction/internal/infra/transport/http"
)

// ErrInvalidRequest is returned when a request body or parameter cannot be
// parsed at all.
var ErrInvalidRequest = errors.New("invalid request")

// HTTPTransportConfig contains configuration parameters for the HTTP
// transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the car auction service. It
// validates incoming requests, dispatches to the vehicle, auction and bidder
// services, and maps domain failures onto response codes.
type HTTPTransport struct {
	vehicleSvc *VehicleService
	auctionSvc *AuctionService
	bidderSvc  *BidderService
	log        logging.Logger
	cfg        HTTPTransportConfig
}

// NewHTTPTransport creates a new HTTPTransport instance with the given
// configuration.
func NewHTTPTransport(
	vehicleSvc *VehicleService,
	auctionSvc *AuctionService,
	bidderSvc *BidderService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	return &HTTPTransport{
		vehicleSvc: vehicleSvc,
		auctionSvc: auctionSvc,
		bidderSvc:  bidderSvc,
		log:        logging.GetLogger("svc.auctionsvc.http_transport"),
		cfg:        cfg,
	}
}

// ServeHTTP implements http.Handler and sets up the service routes.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /vehicles", ht.handle("add vehicle", ht.handleAddVehicle))
	mux.HandleFunc("GET /vehicles", ht.handle("search vehicles", ht.handleSearchVehicles))
	mux.HandleFunc("GET /vehicles/{id}", ht.handle("get vehicle", ht.handleGetVehicle))
	mux.HandleFunc("PUT /vehicles/update", ht.handle("update vehicle", ht.handleUpdateVehicle))
	mux.HandleFunc("DELETE /vehicles/{id}", ht.handle("delete vehicle", ht.handleDeleteVehicle))

	mux.HandleFunc("POST /auctions", ht.handle("add auction", ht.handleAddAuction))
	mux.HandleFunc("POST /auctions/start", ht.handle("start auction", ht.handleStartAuction))
	mux.HandleFunc("POST /auctions/bid", ht.handle("place bid", ht.handlePlaceBid))
	mux.HandleFunc("POST /auctions/close", ht.handle("close auction", ht.handleCloseAuction))
	mux.HandleFunc("GET /auctions/all", ht.handle("get all auctions", ht.handleGetAllAuctions))
	mux.HandleFunc("GET /auctions/onGoing", ht.handle("get ongoing auctions", ht.handleGetOnGoingAuctions))
	mux.HandleFunc("GET /auctions/closed", ht.handle("get closed auctions", ht.handleGetClosedAuctions))
	mux.HandleFunc("GET /auctions/{id}", ht.handle("get auction", ht.handleGetAuction))
	mux.HandleFunc("GET /auctions/{id}/bids", ht.handle("get auction bids", ht.handleGetAuctionBids))

	mux.HandleFunc("POST /bidders", ht.handle("create bidder", ht.handleCreateBidder))
	mux.HandleFunc("DELETE /bidders/{id}", ht.handle("delete bidder", ht.handleDeleteBidder))
	mux.HandleFunc("GET /bidders/{id}", ht.handle("get bidder", ht.handleGetBidder))
	mux.HandleFunc("GET /bidders/{id}/auctions", ht.handle("get bidder auctions", ht.handleGetBidderAuctions))

	mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// handle wraps an error-returning handler with request-scoped logging.
func (ht *HTTPTransport) handle(name string, fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

		if err := fn(w, r); err != nil {
			log.ErrorContext(r.Context(), name+" failed", "error", err)
		} else {
			log.DebugContext(r.Context(), name+" handled")
		}
	}
}

// --- vehicles ---

func (ht *HTTPTransport) handleAddVehicle(w http.ResponseWriter, r *http.Request) error {
	var req AddVehicleRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if fieldErrs := req.Validate(); fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.vehicleSvc.Add(r.Context(), req)
	if err != nil {
		return writeProblem(w, err)
	}

	w.Header().Set("Location", "/vehicles/"+resp.ID.String())

	return writeJSON(w, http.StatusCreated, resp)
}

func (ht *HTTPTransport) handleSearchVehicles(w http.ResponseWriter, r *http.Request) error {
	filter, fieldErrs := parseVehicleFilter(r)
	if fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.vehicleSvc.Search(r.Context(), filter)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, map[string]any{"vehicles": resp})
}

func (ht *HTTPTransport) handleGetVehicle(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(w, r)
	if err != nil {
		return err
	}

	resp, err := ht.vehicleSvc.GetByID(r.Context(), id)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (ht *HTTPTransport) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) error {
	var req UpdateVehicleRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if fieldErrs := req.Validate(); fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.vehicleSvc.Update(r.Context(), req)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (ht *HTTPTransport) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(w, r)
	if err != nil {
		return err
	}

	if err := ht.vehicleSvc.Delete(r.Context(), id); err != nil {
		return writeProblem(w, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// --- auctions ---

func (ht *HTTPTransport) handleAddAuction(w http.ResponseWriter, r *http.Request) error {
	var req AddAuctionRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if fieldErrs := req.Validate(); fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.auctionSvc.AddAuction(r.Context(), req.VehicleID)
	if err != nil {
		return writeProblem(w, err)
	}

	w.Header().Set("Location", "/auctions/"+resp.ID.String())

	return writeJSON(w, http.StatusCreated, resp)
}

func (ht *HTTPTransport) handleStartAuction(w http.ResponseWriter, r *http.Request) error {
	var req StartAuctionRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if fieldErrs := req.Validate(); fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.auctionSvc.StartAuction(r.Context(), req.AuctionID)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (ht *HTTPTransport) handlePlaceBid(w http.ResponseWriter, r *http.Request) error {
	var req PlaceBidRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if fieldErrs := req.Validate(); fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.auctionSvc.PlaceBid(r.Context(), req)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (ht *HTTPTransport) handleCloseAuction(w http.ResponseWriter, r *http.Request) error {
	var req CloseAuctionRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if fieldErrs := req.Validate(); fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.auctionSvc.CloseAuction(r.Context(), req.AuctionID)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (ht *HTTPTransport) handleGetAllAuctions(w http.ResponseWriter, r *http.Request) error {
	resp, err := ht.auctionSvc.GetAllAuctions(r.Context())
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, map[string]any{"auctions": resp})
}

func (ht *HTTPTransport) handleGetOnGoingAuctions(w http.ResponseWriter, r *http.Request) error {
	resp, err := ht.auctionSvc.GetOnGoingAuctions(r.Context())
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, map[string]any{"auctions": resp})
}

func (ht *HTTPTransport) handleGetClosedAuctions(w http.ResponseWriter, r *http.Request) error {
	resp, err := ht.auctionSvc.GetAllClosedAuctions(r.Context())
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, map[string]any{"auctions": resp})
}

func (ht *HTTPTransport) handleGetAuction(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(w, r)
	if err != nil {
		return err
	}

	resp, err := ht.auctionSvc.GetAuctionByID(r.Context(), id)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (ht *HTTPTransport) handleGetAuctionBids(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(w, r)
	if err != nil {
		return err
	}

	resp, err := ht.auctionSvc.GetAuctionBids(r.Context(), id)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

// --- bidders ---

func (ht *HTTPTransport) handleCreateBidder(w http.ResponseWriter, r *http.Request) error {
	var req CreateBidderRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if fieldErrs := req.Validate(); fieldErrs != nil {
		return writeValidationProblem(w, fieldErrs)
	}

	resp, err := ht.bidderSvc.CreateBidder(r.Context(), req)
	if err != nil {
		return writeProblem(w, err)
	}

	w.Header().Set("Location", "/bidders/"+resp.ID.String())

	return writeJSON(w, http.StatusCreated, resp)
}

func (ht *HTTPTransport) handleDeleteBidder(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(w, r)
	if err != nil {
		return err
	}

	if err := ht.bidderSvc.DeleteBidder(r.Context(), id); err != nil {
		return writeProblem(w, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

func (ht *HTTPTransport) handleGetBidder(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(w, r)
	if err != nil {
		return err
	}

	resp, err := ht.bidderSvc.GetBidderWithBids(r.Context(), id)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (ht *HTTPTransport) handleGetBidderAuctions(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(w, r)
	if err != nil {
		return err
	}

	resp, err := ht.bidderSvc.GetAuctionsByBidder(r.Context(), id)
	if err != nil {
		return writeProblem(w, err)
	}

	return writeJSON(w, http.StatusOK, resp)
}

// --- plumbing ---

// problemResponse is the error payload for all failing requests. Validation
// failures additionally carry one message per invalid field.
type problemResponse struct {
	Status int         `json:"status"`
	Title  string      `json:"title"`
	Detail string      `json:"detail,omitempty"`
	Errors FieldErrors `json:"errors,omitempty"`
}

// statusForError maps domain failure kinds onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrVehicleNotFound),
		errors.Is(err, domain.ErrNoVehiclesFound),
		errors.Is(err, domain.ErrAuctionNotFound),
		errors.Is(err, domain.ErrBidderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCannotUpdateVehicleType),
		errors.Is(err, domain.ErrVehicleHasActiveAuction),
		errors.Is(err, domain.ErrAuctionAlreadyExistsForVehicle),
		errors.Is(err, domain.ErrAuctionAlreadyStarted),
		errors.Is(err, domain.ErrAuctionAlreadyClosed),
		errors.Is(err, domain.ErrAuctionNotActive),
		errors.Is(err, domain.ErrBidderAlreadyExists),
		errors.Is(err, domain.ErrBidderHasPlacedBids):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidVehicleType),
		errors.Is(err, domain.ErrAuctionCannotStart),
		errors.Is(err, domain.ErrAuctionHasNoVehicle),
		errors.Is(err, domain.ErrAuctionHasNoBids),
		errors.Is(err, domain.ErrBidBelowStartingPrice),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// writeProblem renders a domain failure and returns it so the handler
// wrapper logs the cause.
func writeProblem(w http.ResponseWriter, err error) error {
	status := statusForError(err)

	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "" // do not leak internals
	}

	_ = writeJSON(w, status, problemResponse{
		Status: status,
		Title:  "An error occurred",
		Detail: detail,
	})

	return err
}

func writeValidationProblem(w http.ResponseWriter, fieldErrs FieldErrors) error {
	_ = writeJSON(w, http.StatusBadRequest, problemResponse{
		Status: http.StatusBadRequest,
		Title:  "Validation failed",
		Errors: fieldErrs,
	})

	return fmt.Errorf("%w: validation failed", ErrInvalidRequest)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		wrapped := fmt.Errorf("%w: decode body: %w", ErrInvalidRequest, err)
		_ = writeJSON(w, http.StatusBadRequest, problemResponse{
			Status: http.StatusBadRequest,
			Title:  "An error occurred",
			Detail: "request body is not valid JSON",
		})

		return wrapped
	}

	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		wrapped := fmt.Errorf("%w: parse id: %w", ErrInvalidRequest, err)
		_ = writeValidationProblem(w, FieldErrors{"id": {"Id must be a valid UUID."}})

		return uuid.Nil, wrapped
	}

	return id, nil
}

func parseVehicleFilter(r *http.Request) (domain.VehicleFilter, FieldErrors) {
	query := r.URL.Query()
	errs := FieldErrors{}

	filter := domain.VehicleFilter{
		Manufacturer: query.Get("manufacturer"),
		Model:        query.Get("model"),
		Type:         domain.VehicleType(query.Get("type")),
	}

	if yearStr := query.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			errs.add("year", "Year must be an integer.")
		} else {
			filter.Year = &year
		}
	}

	if bidStr := query.Get("startingBid"); bidStr != "" {
		bid, err := decimal.NewFromString(bidStr)
		if err != nil {
			errs.add("startingBid", "Starting bid must be a number.")
		} else {
			filter.StartingBid = &bid
		}
	}

	return filter, errs.orNil()
}
