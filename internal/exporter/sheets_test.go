package exporter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"cruisepulse/internal/config"
	"cruisepulse/pkg/contracts/domain"
)

type fakeSheets struct {
	mu      sync.Mutex
	calls   []string
	updated [][]interface{}
	failOn  string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := "update"
	if strings.HasSuffix(r.URL.Path, ":clear") {
		call = "clear"
	}
	f.calls = append(f.calls, r.Method+" "+call)

	if call == f.failOn {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if call == "clear" {
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","clearedRange":"Bookings!A1:Z1000"}`))
		return
	}

	var body struct {
		Values [][]interface{} `json:"values"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.updated = body.Values
	_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updatedRows":2}`))
}

func newTestPublisher(t *testing.T, fake *fakeSheets) *SheetsPublisher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	p, err := NewSheetsPublisher(context.Background(),
		config.SheetsConfig{Enabled: true, SpreadsheetID: "sheet-id", SheetName: "Bookings"},
		"", nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return p
}

func TestSheetsPublisher_Publish(t *testing.T) {
	fake := &fakeSheets{}
	p := newTestPublisher(t, fake)

	columns := []string{domain.FieldVoucherID, domain.ColumnAmountRUB, domain.ColumnIsCruiseSeller}
	err := p.Publish(context.Background(), columns, []domain.EnrichedRecord{sampleRecord()})
	require.NoError(t, err)

	assert.Equal(t, []string{"POST clear", "PUT update"}, fake.calls, "sheet is cleared before writing")
	require.Len(t, fake.updated, 2)
	assert.Equal(t, []interface{}{"voucher_id", "amount_rub", "is_cruise_seller"}, fake.updated[0])
	assert.Equal(t, []interface{}{"V-1", 9927.5, true}, fake.updated[1])
}

func TestSheetsPublisher_Errors(t *testing.T) {
	tests := []struct {
		failOn    string
		wantCalls int
	}{
		{"clear", 1},
		{"update", 2},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			fake := &fakeSheets{failOn: tt.failOn}
			p := newTestPublisher(t, fake)

			err := p.Publish(context.Background(), []string{"a"}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.failOn)
			assert.Len(t, fake.calls, tt.wantCalls)
		})
	}
}

func TestNewSheetsPublisher_RequiresSpreadsheet(t *testing.T) {
	_, err := NewSheetsPublisher(context.Background(), config.SheetsConfig{Enabled: true}, "", nil)
	assert.Error(t, err)
}
