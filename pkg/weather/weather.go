// Package weather supplies the weather stamp on diary entries. With an OpenWeather key it
// asks the real API, otherwise it picks a demo condition.
package weather

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"petvoice/pkg/config"
	"petvoice/pkg/flight"
)

type Report struct {
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
	Temperature string `json:"temperature"`
}

// Fallback is reported when the real API fails.
var Fallback = Report{Condition: "Clear", Icon: "01d", Temperature: "20°C"}

var demoConditions = []Report{
	{Condition: "Clear", Icon: "01d"},
	{Condition: "Cloudy", Icon: "02d"},
	{Condition: "Rain", Icon: "10d"},
	{Condition: "Snow", Icon: "13d"},
	{Condition: "Partly cloudy", Icon: "03d"},
}

const (
	defaultTimeout = 10 * time.Second
	cacheExpiry    = 10 * time.Minute
)

// HTTPError is a non-2xx answer from the weather API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weather api: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("weather api: status=%d body=%s", e.StatusCode, e.Body)
}

type Service struct {
	apiKey  string
	city    string
	baseURL string
	http    *http.Client
	pick    func(n int) int
	cache   *flight.Cache[string, Report]
}

type Option func(*Service)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.http = c
		}
	}
}

// WithPicker replaces the random source used in demo mode.
func WithPicker(p func(n int) int) Option {
	return func(s *Service) {
		if p != nil {
			s.pick = p
		}
	}
}

func New(cfg config.WeatherConfig, opts ...Option) *Service {
	s := &Service{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		city:    cmp.Or(strings.TrimSpace(cfg.City), "Seoul"),
		baseURL: strings.TrimRight(cmp.Or(cfg.BaseURL, "https://api.openweathermap.org"), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		pick:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = flight.NewCache(s.fetch)
	s.cache.Expiry(cacheExpiry)
	return s
}

// Current never fails: API errors degrade to Fallback.
func (s *Service) Current(ctx context.Context) Report {
	if s.apiKey == "" {
		return s.demo()
	}
	r, err := s.cache.Get(ctx, s.city)
	if err != nil {
		log.Warn("weather lookup failed, using fallback", "city", s.city, "error", err)
		return Fallback
	}
	return r
}

func (s *Service) demo() Report {
	r := demoConditions[s.pick(len(demoConditions))]
	r.Temperature = fmt.Sprintf("%d°C", s.pick(30)+5)
	return r
}

type apiResponse struct {
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

func (s *Service) fetch(ctx context.Context, city string) (Report, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", s.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("weather: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Report{}, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var body apiResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return Report{}, fmt.Errorf("weather: unmarshal json: %w", err)
	}
	if len(body.Weather) == 0 || body.Main.Temp == nil {
		return Report{}, errors.New("weather: incomplete response")
	}

	return Report{
		Condition:   body.Weather[0].Description,
		Icon:        body.Weather[0].Icon,
		Temperature: fmt.Sprintf("%d°C", int(math.Round(*body.Main.Temp))),
	}, nil
}
