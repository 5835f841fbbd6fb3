package flights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"voyager/models"
	"voyager/utils"

	"go.uber.org/zap"
)

const (
	tokenLifetimeFallback = 30 * time.Minute
	tokenRefreshEarly     = 60 * time.Second
	maxAttempts           = 3
)

// AmadeusBackend talks to the Amadeus Self-Service APIs. OAuth tokens are
// cached and refreshed shortly before expiry; transient upstream failures
// are retried a bounded number of times before surfacing as ErrUnavailable.
type AmadeusBackend struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewAmadeusBackend builds a backend against the given environment
// (test.api.amadeus.com or api.amadeus.com).
func NewAmadeusBackend(baseURL, clientID, clientSecret string) *AmadeusBackend {
	return &AmadeusBackend{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient:   &http.Client{Timeout: 20 * time.Second},
	}
}

func (b *AmadeusBackend) SearchFlights(ctx context.Context, query models.FlightSearchQuery) ([]models.FlightOffer, error) {
	offers, err := b.searchOnce(ctx, query)
	if err != nil {
		return nil, err
	}
	// Sparse routes often have no premium inventory; fall back to ECONOMY
	// once rather than telling the caller there are no flights at all.
	if len(offers) == 0 && !strings.EqualFold(query.CabinClass, "ECONOMY") {
		utils.GetLogger().Info("amadeus: no offers for cabin, retrying with ECONOMY",
			zap.String("cabin", query.CabinClass))
		fallback := query
		fallback.CabinClass = "ECONOMY"
		return b.searchOnce(ctx, fallback)
	}
	return offers, nil
}

func (b *AmadeusBackend) searchOnce(ctx context.Context, query models.FlightSearchQuery) ([]models.FlightOffer, error) {
	adults := query.Adults
	if adults < 1 {
		adults = 1
	}
	params := url.Values{}
	params.Set("originLocationCode", query.OriginIATA)
	params.Set("destinationLocationCode", query.DestinationIATA)
	params.Set("departureDate", query.DepartureDate)
	params.Set("adults", strconv.Itoa(adults))
	params.Set("travelClass", strings.ToUpper(query.CabinClass))
	params.Set("currencyCode", "USD")
	params.Set("max", "20")
	if query.ReturnDate != "" {
		params.Set("returnDate", query.ReturnDate)
	}

	var out struct {
		Data []models.FlightOffer `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodGet, "/v2/shopping/flight-offers?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (b *AmadeusBackend) PriceOffer(ctx context.Context, offer models.FlightOffer) (*models.FlightOffer, error) {
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []models.FlightOffer{offer},
		},
	}
	var out struct {
		Data struct {
			FlightOffers []models.FlightOffer `json:"flightOffers"`
		} `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodPost, "/v1/shopping/flight-offers/pricing", body, &out); err != nil {
		return nil, err
	}
	if len(out.Data.FlightOffers) == 0 {
		return nil, fmt.Errorf("pricing returned no offers: %w", ErrStaleOffer)
	}
	priced := out.Data.FlightOffers[0]
	return &priced, nil
}

func (b *AmadeusBackend) CreateOrder(ctx context.Context, offer models.FlightOffer, traveler models.Passenger) (*models.FlightOrder, error) {
	phone := strings.TrimPrefix(traveler.Phone, "+")
	countryCode := "1"
	if len(phone) > 10 {
		countryCode = phone[:len(phone)-10]
		phone = phone[len(phone)-10:]
	}
	travelerDoc := map[string]any{
		"id":          "1",
		"dateOfBirth": traveler.DateOfBirth,
		"gender":      strings.ToUpper(traveler.Gender),
		"name": map[string]string{
			"firstName": strings.ToUpper(traveler.FirstName),
			"lastName":  strings.ToUpper(traveler.LastName),
		},
		"contact": map[string]any{
			"emailAddress": traveler.Email,
			"phones": []map[string]string{{
				"deviceType":         "MOBILE",
				"countryCallingCode": countryCode,
				"number":             phone,
			}},
		},
	}
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": []models.FlightOffer{offer},
			"travelers":    []any{travelerDoc},
		},
	}

	var out struct {
		Data struct {
			ID                string `json:"id"`
			AssociatedRecords []struct {
				Reference string `json:"reference"`
			} `json:"associatedRecords"`
		} `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodPost, "/v1/booking/flight-orders", body, &out); err != nil {
		return nil, err
	}
	order := &models.FlightOrder{OrderID: out.Data.ID}
	if len(out.Data.AssociatedRecords) > 0 {
		order.PNR = out.Data.AssociatedRecords[0].Reference
	}
	return order, nil
}

func (b *AmadeusBackend) SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error) {
	params := url.Values{}
	params.Set("subType", "AIRPORT")
	params.Set("keyword", keyword)
	params.Set("page[limit]", "8")

	var out struct {
		Data []amadeusLocation `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodGet, "/v1/reference-data/locations?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return locationsToAirports(out.Data), nil
}

func (b *AmadeusBackend) NearestAirports(ctx context.Context, lat, lon float64, limit int) ([]models.Airport, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("page[limit]", strconv.Itoa(limit))

	var out struct {
		Data []amadeusLocation `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodGet, "/v1/reference-data/locations/airports?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return locationsToAirports(out.Data), nil
}

type amadeusLocation struct {
	IataCode string `json:"iataCode"`
	Name     string `json:"name"`
	Address  struct {
		CityName    string `json:"cityName"`
		CountryCode string `json:"countryCode"`
	} `json:"address"`
	GeoCode struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geoCode"`
}

func locationsToAirports(locs []amadeusLocation) []models.Airport {
	out := make([]models.Airport, 0, len(locs))
	for _, l := range locs {
		out = append(out, models.Airport{
			IATA:      l.IataCode,
			Name:      l.Name,
			City:      l.Address.CityName,
			Country:   l.Address.CountryCode,
			Latitude:  l.GeoCode.Latitude,
			Longitude: l.GeoCode.Longitude,
			Tier:      2,
		})
	}
	return out
}

// token returns a cached OAuth token, refreshing it shortly before expiry.
func (b *AmadeusBackend) token(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.accessToken != "" && time.Now().Before(b.tokenExpiry.Add(-tokenRefreshEarly)) {
		return b.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", b.ClientID)
	form.Set("client_secret", b.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("amadeus: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("amadeus: token request: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("amadeus: token request status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("amadeus: decode token: %w", err)
	}
	b.accessToken = tok.AccessToken
	if tok.ExpiresIn > 0 {
		b.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	} else {
		b.tokenExpiry = time.Now().Add(tokenLifetimeFallback)
	}
	return b.accessToken, nil
}

// doJSON performs one API call with auth, bounded retries on 5xx, and error
// classification: 5xx/transport -> ErrUnavailable, relevant 4xx -> ErrStaleOffer.
func (b *AmadeusBackend) doJSON(ctx context.Context, method, path string, body any, out any) error {
	logger := utils.GetLogger()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("amadeus: marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("amadeus: %s %s: %w", method, path, ctx.Err())
			case <-time.After(delay):
			}
		}

		tok, err := b.token(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, b.BaseURL+path, reqBody)
		if err != nil {
			return fmt.Errorf("amadeus: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := b.HTTPClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("amadeus: %s %s: %w: %v", method, path, ErrUnavailable, err)
			logger.Warn("amadeus: request failed", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("amadeus: read response: %w: %v", ErrUnavailable, readErr)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out != nil {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("amadeus: decode %s response: %w", path, err)
				}
			}
			return nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("amadeus: %s %s status %d: %w", method, path, resp.StatusCode, ErrUnavailable)
			logger.Warn("amadeus: upstream error, will retry",
				zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
			continue
		case resp.StatusCode == http.StatusUnauthorized:
			// Token may have been revoked server-side; drop it and retry.
			b.mu.Lock()
			b.accessToken = ""
			b.mu.Unlock()
			lastErr = fmt.Errorf("amadeus: %s %s status 401: %w", method, path, ErrUnavailable)
			continue
		default:
			if isStaleOfferResponse(respBody) {
				return fmt.Errorf("amadeus: %s %s status %d: %w", method, path, resp.StatusCode, ErrStaleOffer)
			}
			return fmt.Errorf("amadeus: %s %s status %d: %s: %w", method, path, resp.StatusCode,
				truncate(string(respBody), 200), ErrUnavailable)
		}
	}
	return lastErr
}

// isStaleOfferResponse sniffs the error body for the inventory-mismatch
// shapes pricing and ordering return when an offer has gone stale.
func isStaleOfferResponse(body []byte) bool {
	s := strings.ToUpper(string(body))
	return strings.Contains(s, "INVALID DATA RECEIVED") ||
		strings.Contains(s, "SEGMENT SELL FAILURE") ||
		strings.Contains(s, "NO FARE APPLICABLE") ||
		strings.Contains(s, "PRICING") && strings.Contains(s, "EXPIRED")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
