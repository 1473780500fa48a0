package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"usageforecast/config"
	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/store"
	"usageforecast/usage"
)

func weeklyRows(weeks int) []usage.Row {
	users := []usage.Row{
		{User: "Ani", Category: "Toko", Location: "Jakarta", Power: 2200},
		{User: "Budi", Category: "Rumah", Location: "Bandung", Power: 900},
		{User: "Citra", Category: "Kantor", Location: "Surabaya", Power: 5500},
	}
	rows := make([]usage.Row, 0, weeks*len(users))
	for w := 1; w <= weeks; w++ {
		for i, u := range users {
			u.Week = w
			u.Usage = float64(10*(i+1)) + float64((w*(i+3))%7)
			rows = append(rows, u)
		}
	}
	return rows
}

func newTestHandler(rows []usage.Row, mc config.ModelConfig) http.Handler {
	return NewHandler(store.NewMemStore(rows...), mc).Routes()
}

func defaultModel() config.ModelConfig {
	return config.Default().Model
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, gjson.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, gjson.ParseBytes(rec.Body.Bytes())
}

func TestPredictEndpoint(t *testing.T) {
	h := newTestHandler(weeklyRows(12), defaultModel())

	code, res := do(t, h, http.MethodGet, "/predict", "")
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.Equal(t, "success", res.Get("status").String())

	data := res.Get("data").Array()
	require.Len(t, data, 3)
	assert.Equal(t, "Ani", data[0].Get("User.0").String())
	assert.Equal(t, 2200.0, data[0].Get("User.3").Float())
	for _, rec := range data {
		for w := 1; w <= 12; w++ {
			assert.True(t, rec.Get(fmt.Sprintf("Week_%d", w)).Exists())
		}
		for s := 1; s <= 10; s++ {
			assert.True(t, rec.Get(fmt.Sprintf("Pred_Week_%d", s)).Exists())
		}
		assert.False(t, rec.Get("Pred_Week_11").Exists())
	}
}

func TestPredictWhiteNoiseReturnsMean(t *testing.T) {
	rows := []usage.Row{
		{User: "Ani", Week: 1, Usage: 2},
		{User: "Ani", Week: 2, Usage: 4},
		{User: "Ani", Week: 3, Usage: 6},
		{User: "Ani", Week: 4, Usage: 8},
	}
	h := newTestHandler(rows, config.ModelConfig{P: 0, Q: 0, Steps: 3, DiagLags: 1, DiagAlpha: 0.05})

	code, res := do(t, h, http.MethodGet, "/predict", "")
	require.Equal(t, http.StatusOK, code, res.Raw)
	rec := res.Get("data.0")
	for s := 1; s <= 3; s++ {
		assert.Equal(t, 5.0, rec.Get(fmt.Sprintf("Pred_Week_%d", s)).Float())
	}
}

func TestPredictInsufficientData(t *testing.T) {
	h := newTestHandler(weeklyRows(1), defaultModel())

	code, res := do(t, h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", res.Get("status").String())
	assert.Contains(t, res.Get("message").String(), "INSUFFICIENT_DATA")
}

// 单个值有限但均值溢出，应返回 400 而不是在四舍五入时 panic
func TestPredictOverflowingUsage(t *testing.T) {
	rows := make([]usage.Row, 0, 6)
	for w := 1; w <= 6; w++ {
		u := 0.0
		if w%2 == 0 {
			u = 1.5e308
		}
		rows = append(rows, usage.Row{User: "Ani", Category: "Toko", Location: "Jakarta", Power: 2200, Week: w, Usage: u})
	}
	h := newTestHandler(rows, defaultModel())

	code, res := do(t, h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", res.Get("status").String())
	assert.Contains(t, res.Get("message").String(), "PRECONDITION")
}

func TestPredictionsSaved(t *testing.T) {
	h := newTestHandler(weeklyRows(12), defaultModel())

	code, res := do(t, h, http.MethodGet, "/get_predictions_data", "")
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.True(t, res.Get("data").IsArray())
	assert.Empty(t, res.Get("data").Array())

	code, pred := do(t, h, http.MethodGet, "/predict", "")
	require.Equal(t, http.StatusOK, code, pred.Raw)

	code, res = do(t, h, http.MethodGet, "/get_predictions_data", "")
	require.Equal(t, http.StatusOK, code, res.Raw)
	data := res.Get("data").Array()
	require.Len(t, data, 3*10)

	first := data[0]
	assert.Equal(t, "Ani", first.Get("nama_pemakai").String())
	assert.Equal(t, "Toko", first.Get("Kategori").String())
	assert.Equal(t, "Jakarta", first.Get("Wilayah").String())
	assert.Equal(t, int64(1), first.Get("week_pred").Int())
	assert.Equal(t, pred.Get("data.0.Pred_Week_1").Float(), first.Get("prediction_result").Float())
	assert.Equal(t, int64(10), data[9].Get("week_pred").Int())
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, envelope{Status: "success", Data: []float64{math.NaN()}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	res := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, "error", res.Get("status").String())
	assert.Contains(t, res.Get("message").String(), "encode response")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(errorx.New(errCode.PRECONDITION, "x")))
	assert.Equal(t, http.StatusBadRequest, statusOf(fmt.Errorf("fit: %w", errorx.New(errCode.INSUFFICIENT_DATA, "x"))))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errorx.New(errCode.STORAGE, "x")))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, statusOf(context.Canceled))
}

func TestPredictEmptyStore(t *testing.T) {
	h := newTestHandler(nil, defaultModel())
	code, res := do(t, h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Get("message").String(), "EMPTY_VALUE")
}

func TestGetDataAndPostUsage(t *testing.T) {
	h := newTestHandler(weeklyRows(2), defaultModel())

	code, res := do(t, h, http.MethodGet, "/get_data", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Get("data").Array(), 6)
	assert.Equal(t, "Ani", res.Get("data.0.nama_pemakai").String())
	assert.Equal(t, int64(1), res.Get("data.0.minggu").Int())

	body := `[{"nama_pemakai":"Dewi","kategori":"Rumah","lokasi":"Medan","daya_tersambung":1300,"minggu":1,"usage_data":8.25}]`
	code, res = do(t, h, http.MethodPost, "/usage", body)
	require.Equal(t, http.StatusOK, code, res.Raw)
	assert.Equal(t, int64(1), res.Get("data.inserted").Int())

	_, res = do(t, h, http.MethodGet, "/get_data", "")
	assert.Len(t, res.Get("data").Array(), 7)
	assert.Equal(t, 8.25, res.Get(`data.#(nama_pemakai=="Dewi").usage_data`).Float())
}

func TestPostUsageInvalid(t *testing.T) {
	h := newTestHandler(nil, defaultModel())
	code, res := do(t, h, http.MethodPost, "/usage", `[{"minggu":1}]`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", res.Get("status").String())
}

func TestGetDataEmpty(t *testing.T) {
	h := newTestHandler(nil, defaultModel())
	code, res := do(t, h, http.MethodGet, "/get_data", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Get("data").IsArray())
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(weeklyRows(12), defaultModel())
	code, _ := do(t, h, http.MethodPost, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = do(t, h, http.MethodGet, "/usage", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestModelEndpoint(t *testing.T) {
	h := newTestHandler(weeklyRows(30), defaultModel())

	code, res := do(t, h, http.MethodGet, "/model", "")
	require.Equal(t, http.StatusOK, code, res.Raw)

	d := res.Get("data")
	assert.Equal(t, int64(1), d.Get("p").Int())
	assert.Equal(t, int64(1), d.Get("q").Int())
	assert.Equal(t, int64(30), d.Get("nObs").Int())
	assert.Len(t, d.Get("columns").Array(), 3)
	assert.Len(t, d.Get("mu").Array(), 3)
	assert.Len(t, d.Get("phi").Array(), 1)
	assert.Len(t, d.Get("phi.0").Array(), 3)
	assert.Len(t, d.Get("residuals").Array(), 3)
	assert.Equal(t, "Ani/Toko/Jakarta/2200", d.Get("residuals.0.column").String())

	fits := d.Get("fits").Array()
	require.Len(t, fits, 2)
	assert.Equal(t, "ar", fits[0].Get("term").String())
	assert.Equal(t, "ma", fits[1].Get("term").String())
	assert.Equal(t, int64(3), fits[0].Get("rank").Int())
	assert.Len(t, fits[0].Get("rSquared").Array(), 3)
}

func TestIndex(t *testing.T) {
	h := newTestHandler(nil, defaultModel())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Electricity Usage Forecast")

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerStartStop(t *testing.T) {
	srv, err := NewServer(DefaultConfig(), NewHandler(store.NewMemStore(weeklyRows(12)...), defaultModel()))
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)
	assert.NotEqual(t, ":0", addr)
	assert.Equal(t, addr, srv.Addr())

	url := "http://" + addr + "/predict"
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", gjson.GetBytes(body, "status").String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err = http.Get(url)
	assert.Error(t, err)
}

func TestNewServerNilHandler(t *testing.T) {
	_, err := NewServer(DefaultConfig(), nil)
	assert.Error(t, err)
}
