package auctionsvc_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkrupp/carauction/internal/repo/auction"
	"github.com/mkrupp/carauction/internal/repo/bidder"
	"github.com/mkrupp/carauction/internal/repo/vehicle"
	"github.com/mkrupp/carauction/internal/svc/auctionsvc"
)

func setupTransport(t *testing.T) *auctionsvc.HTTPTransport {
	t.Helper()

	vehicleRepo := vehicle.NewMemoryRepository()
	auctionRepo := auction.NewMemoryRepository()
	bidderRepo := bidder.NewMemoryRepository()

	return auctionsvc.NewHTTPTransport(
		auctionsvc.NewVehicleService(vehicleRepo, auctionRepo),
		auctionsvc.NewAuctionService(auctionRepo, vehicleRepo, bidderRepo),
		auctionsvc.NewBidderService(bidderRepo, auctionRepo),
		auctionsvc.HTTPTransportConfig{},
	)
}

func doJSON(t *testing.T, ht *auctionsvc.HTTPTransport, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ht.ServeHTTP(rec, req)

	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func TestHTTPTransport_VehicleLifecycle(t *testing.T) {
	t.Parallel()

	ht := setupTransport(t)

	rec := doJSON(t, ht, http.MethodPost, "/vehicles", map[string]any{
		"manufacturer":  "Toyota",
		"model":         "Corolla",
		"year":          2021,
		"startingBid":   "8000",
		"type":          "Sedan",
		"numberOfDoors": 4,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /vehicles status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var created struct {
		ID string `json:"id"`
	}

	decodeInto(t, rec, &created)

	if loc := rec.Header().Get("Location"); loc != "/vehicles/"+created.ID {
		t.Errorf("POST /vehicles Location = %q, want /vehicles/%s", loc, created.ID)
	}

	rec = doJSON(t, ht, http.MethodGet, "/vehicles/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /vehicles/{id} status = %d, want 200: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, ht, http.MethodGet, "/vehicles?manufacturer=toyota&type=Sedan", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /vehicles status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var searched struct {
		Vehicles []json.RawMessage `json:"vehicles"`
	}

	decodeInto(t, rec, &searched)

	if len(searched.Vehicles) != 1 {
		t.Errorf("GET /vehicles returned %d vehicles, want 1", len(searched.Vehicles))
	}

	rec = doJSON(t, ht, http.MethodPut, "/vehicles/update", map[string]any{
		"id":    created.ID,
		"type":  "Sedan",
		"model": "Camry",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /vehicles/update status = %d, want 200: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, ht, http.MethodDelete, "/vehicles/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE /vehicles/{id} status = %d, want 204: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, ht, http.MethodGet, "/vehicles/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted vehicle status = %d, want 404", rec.Code)
	}
}

func TestHTTPTransport_ValidationProblem(t *testing.T) {
	t.Parallel()

	ht := setupTransport(t)

	rec := doJSON(t, ht, http.MethodPost, "/vehicles", map[string]any{
		"model":       "Corolla",
		"year":        1700,
		"startingBid": "0",
		"type":        "Sedan",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /vehicles status = %d, want 400: %s", rec.Code, rec.Body)
	}

	var problem struct {
		Status int                 `json:"status"`
		Errors map[string][]string `json:"errors"`
	}

	decodeInto(t, rec, &problem)

	for _, field := range []string{"manufacturer", "year", "startingBid"} {
		if len(problem.Errors[field]) == 0 {
			t.Errorf("validation problem missing %q: %+v", field, problem.Errors)
		}
	}
}

func TestHTTPTransport_MalformedBody(t *testing.T) {
	t.Parallel()

	ht := setupTransport(t)

	req := httptest.NewRequest(http.MethodPost, "/vehicles", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	ht.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /vehicles with bad body status = %d, want 400", rec.Code)
	}
}

func TestHTTPTransport_BadPathID(t *testing.T) {
	t.Parallel()

	ht := setupTransport(t)

	rec := doJSON(t, ht, http.MethodGet, "/vehicles/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /vehicles/not-a-uuid status = %d, want 400", rec.Code)
	}
}

//nolint:cyclop
func TestHTTPTransport_AuctionFlow(t *testing.T) {
	t.Parallel()

	ht := setupTransport(t)

	rec := doJSON(t, ht, http.MethodPost, "/vehicles", map[string]any{
		"manufacturer":  "Toyota",
		"model":         "Corolla",
		"year":          2021,
		"startingBid":   "8000",
		"type":          "Sedan",
		"numberOfDoors": 4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /vehicles status = %d: %s", rec.Code, rec.Body)
	}

	var v struct {
		ID string `json:"id"`
	}

	decodeInto(t, rec, &v)

	rec = doJSON(t, ht, http.MethodPost, "/bidders", map[string]any{
		"name":  "Alice",
		"email": "alice@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /bidders status = %d: %s", rec.Code, rec.Body)
	}

	var b struct {
		ID string `json:"id"`
	}

	decodeInto(t, rec, &b)

	rec = doJSON(t, ht, http.MethodPost, "/auctions", map[string]any{"vehicleId": v.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /auctions status = %d: %s", rec.Code, rec.Body)
	}

	var a struct {
		ID string `json:"id"`
	}

	decodeInto(t, rec, &a)

	// A second auction for the same vehicle conflicts.
	rec = doJSON(t, ht, http.MethodPost, "/auctions", map[string]any{"vehicleId": v.ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("POST /auctions duplicate status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, ht, http.MethodPost, "/auctions/start", map[string]any{"auctionId": a.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /auctions/start status = %d: %s", rec.Code, rec.Body)
	}

	// A bid at the starting price is a bad request.
	rec = doJSON(t, ht, http.MethodPost, "/auctions/bid", map[string]any{
		"auctionId": a.ID,
		"bidderId":  b.ID,
		"amount":    "8000",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /auctions/bid at starting price status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, ht, http.MethodPost, "/auctions/bid", map[string]any{
		"auctionId": a.ID,
		"bidderId":  b.ID,
		"amount":    "9000",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /auctions/bid status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, ht, http.MethodGet, fmt.Sprintf("/auctions/%s/bids", a.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /auctions/{id}/bids status = %d: %s", rec.Code, rec.Body)
	}

	var bidsResp struct {
		Bids []json.RawMessage `json:"bids"`
	}

	decodeInto(t, rec, &bidsResp)

	if len(bidsResp.Bids) != 1 {
		t.Errorf("GET /auctions/{id}/bids returned %d bids, want 1", len(bidsResp.Bids))
	}

	rec = doJSON(t, ht, http.MethodGet, "/auctions/onGoing", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /auctions/onGoing status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, ht, http.MethodPost, "/auctions/close", map[string]any{"auctionId": a.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /auctions/close status = %d: %s", rec.Code, rec.Body)
	}

	var closed struct {
		Status     string `json:"status"`
		FinalPrice string `json:"finalPrice"`
		WinnerID   string `json:"winnerId"`
	}

	decodeInto(t, rec, &closed)

	if closed.Status != "Closed" || closed.FinalPrice != "9000" || closed.WinnerID != b.ID {
		t.Errorf("POST /auctions/close = %+v, want Closed at 9000 by %s", closed, b.ID)
	}

	// Closing again conflicts.
	rec = doJSON(t, ht, http.MethodPost, "/auctions/close", map[string]any{"auctionId": a.ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("POST /auctions/close twice status = %d, want 409", rec.Code)
	}

	// The bidder now has placed bids and cannot be deleted.
	rec = doJSON(t, ht, http.MethodDelete, "/bidders/"+b.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("DELETE /bidders/{id} with bids status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, ht, http.MethodGet, "/bidders/"+b.ID+"/auctions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /bidders/{id}/auctions status = %d: %s", rec.Code, rec.Body)
	}

	var summaries struct {
		Auctions []struct {
			AuctionID     string `json:"auctionId"`
			LastBidAmount string `json:"lastBidAmount"`
		} `json:"auctions"`
	}

	decodeInto(t, rec, &summaries)

	if len(summaries.Auctions) != 1 || summaries.Auctions[0].LastBidAmount != "9000" {
		t.Errorf("GET /bidders/{id}/auctions = %+v, want one auction at 9000", summaries.Auctions)
	}
}

func TestHTTPTransport_NotFoundMapping(t *testing.T) {
	t.Parallel()

	ht := setupTransport(t)

	missing := "0b9e2b66-7e33-4a2e-9d6a-7f6f7c6a8b9c"

	paths := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/vehicles/" + missing, nil},
		{http.MethodGet, "/auctions/" + missing, nil},
		{http.MethodGet, "/bidders/" + missing, nil},
		{http.MethodPost, "/auctions/start", map[string]any{"auctionId": missing}},
		{http.MethodPost, "/auctions", map[string]any{"vehicleId": missing}},
	}

	for _, p := range paths {
		rec := doJSON(t, ht, p.method, p.path, p.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", p.method, p.path, rec.Code)
		}
	}
}
