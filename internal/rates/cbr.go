package rates

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"

	apperrors "cruisepulse/internal/errors"
	"cruisepulse/pkg/contracts/domain"
)

// cbrDateLayout is the date_req query format, DD/MM/YYYY
const cbrDateLayout = "02/01/2006"

// DayFetcher fetches one day of rates
type DayFetcher interface {
	FetchDay(ctx context.Context, date time.Time) (domain.Rate, error)
}

// valCurs mirrors the XML_daily.asp document
type valCurs struct {
	XMLName xml.Name `xml:"ValCurs"`
	Date    string   `xml:"Date,attr"`
	Valutes []valute `xml:"Valute"`
}

type valute struct {
	CharCode string `xml:"CharCode"`
	Nominal  string `xml:"Nominal"`
	Value    string `xml:"Value"`
}

// CBRClient queries the Central Bank of Russia daily rates endpoint. Requests
// are spaced by a limiter so bulk downloads stay polite.
type CBRClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	currencies []domain.Currency
	logger     *slog.Logger
}

// NewCBRClient creates a client. interval is the minimum gap between requests;
// zero disables throttling.
func NewCBRClient(baseURL string, timeout, interval time.Duration, logger *slog.Logger) *CBRClient {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &CBRClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		currencies: fileCurrencies,
		logger:     logger.With("component", "cbr_client"),
	}
}

// FetchDay returns USD and EUR for date. A day missing either currency is an error.
func (c *CBRClient) FetchDay(ctx context.Context, date time.Time) (domain.Rate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Rate{}, err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return domain.Rate{}, apperrors.NewConfigError("invalid rates source url", err)
	}
	q := u.Query()
	q.Set("date_req", date.Format(cbrDateLayout))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Rate{}, apperrors.NewNetworkError("failed to build rates request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Rate{}, apperrors.NewNetworkError("rates request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Rate{}, apperrors.NewNetworkError(
			fmt.Sprintf("rates request returned status %d", resp.StatusCode), nil)
	}

	values, err := parseDaily(resp.Body)
	if err != nil {
		return domain.Rate{}, err
	}

	out := domain.Rate{Date: truncateDay(date), Values: make(map[domain.Currency]float64, len(c.currencies))}
	for _, cur := range c.currencies {
		v, ok := values[cur]
		if !ok {
			return domain.Rate{}, apperrors.NewRatesError(
				fmt.Sprintf("no %s rate for %s", cur, date.Format("02.01.2006")), nil)
		}
		out.Values[cur] = v
	}

	c.logger.DebugContext(ctx, "Fetched daily rates",
		slog.String("date", date.Format("2006-01-02")),
		slog.Any("values", out.Values))

	return out, nil
}

// parseDaily decodes the windows-1251 XML into RUB per one unit of each currency
func parseDaily(r io.Reader) (map[domain.Currency]float64, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var doc valCurs
	if err := dec.Decode(&doc); err != nil {
		return nil, apperrors.NewParsingError("failed to decode rates XML", err)
	}

	out := make(map[domain.Currency]float64, len(doc.Valutes))
	for _, v := range doc.Valutes {
		value, err := parseCommaFloat(v.Value)
		if err != nil {
			continue
		}
		nominal := 1.0
		if n, err := parseCommaFloat(v.Nominal); err == nil && n > 0 {
			nominal = n
		}
		out[domain.Currency(strings.TrimSpace(v.CharCode))] = value / nominal
	}
	return out, nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(input), nil
	case "utf-8", "utf8", "":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
}

func parseCommaFloat(s string) (float64, error) {
	return parseRate(strings.ReplaceAll(s, ",", "."))
}
