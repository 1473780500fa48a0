package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"usageforecast/config"
	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/infra/observe/log/staticLog"
	"usageforecast/store"
	"usageforecast/timeSeries/acf"
	"usageforecast/timeSeries/tsMatrix"
	"usageforecast/timeSeries/varma"
	"usageforecast/usage"
)

const maxBodyBytes = 8 << 20

// Handler 无状态: 每个请求从存储读取数据并重新拟合
type Handler struct {
	store store.UsageStore
	model config.ModelConfig
}

func NewHandler(st store.UsageStore, mc config.ModelConfig) *Handler {
	return &Handler{store: st, model: mc}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /get_data", h.getData)
	mux.HandleFunc("POST /usage", h.postUsage)
	mux.HandleFunc("GET /predict", h.predict)
	mux.HandleFunc("GET /get_predictions_data", h.getPredictions)
	mux.HandleFunc("GET /model", h.modelSummary)
	return logRequests(mux)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, HTMLPage)
}

func (h *Handler) getData(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []usage.Row{}
	}
	writeSuccess(w, rows)
}

func (h *Handler) postUsage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, errorx.Wrap(errCode.INVALID_VALUE, "read body", err))
		return
	}
	rows, err := usage.ParseRowsJSON(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.Insert(r.Context(), rows); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]int{"inserted": len(rows)})
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	tb, model, err := h.fit(r)
	if err != nil {
		writeError(w, err)
		return
	}

	forecast, err := model.Predict(tb.Values, h.model.Steps)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := usage.Combine(tb, forecast)
	if err != nil {
		writeError(w, err)
		return
	}

	// 保存失败不影响本次返回
	preds, err := usage.Predictions(tb, forecast)
	if err == nil {
		err = h.store.SavePredictions(r.Context(), preds)
	}
	if err != nil {
		staticLog.Log.Warnf("save predictions: %v", err)
	}
	writeSuccess(w, records)
}

// getPredictions 最近一次 /predict 保存的结果
func (h *Handler) getPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := h.store.ListPredictions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if preds == nil {
		preds = []usage.Prediction{}
	}
	writeSuccess(w, preds)
}

type residualJSON struct {
	Column string             `json:"column"`
	Q      float64            `json:"q"`
	DF     int                `json:"df"`
	PValue float64            `json:"pValue"`
	Reject bool               `json:"reject"`
	ACF    []float64          `json:"acf,omitempty"`
	Hist   []acf.HistogramBin `json:"hist,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// R² 为 NaN 时输出 null
type lagFitJSON struct {
	Term     string     `json:"term"`
	Lag      int        `json:"lag"`
	Rank     int        `json:"rank"`
	RSS      []float64  `json:"rss"`
	RSquared []*float64 `json:"rSquared"`
}

type modelJSON struct {
	P         int            `json:"p"`
	Q         int            `json:"q"`
	NObs      int            `json:"nObs"`
	Columns   []string       `json:"columns"`
	Mu        []float64      `json:"mu"`
	Phi       [][][]float64  `json:"phi"`
	Theta     [][][]float64  `json:"theta"`
	Fits      []lagFitJSON   `json:"fits"`
	Residuals []residualJSON `json:"residuals"`
}

func (h *Handler) modelSummary(w http.ResponseWriter, r *http.Request) {
	tb, model, err := h.fit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := model.Summary(tb.Values, h.model.DiagLags, h.model.DiagAlpha)
	if err != nil {
		writeError(w, err)
		return
	}

	out := modelJSON{
		P:         s.Order.P,
		Q:         s.Order.Q,
		NObs:      s.NObs,
		Columns:   make([]string, len(tb.Keys)),
		Mu:        roundAll(s.Mu),
		Phi:       make([][][]float64, len(s.Phi)),
		Theta:     make([][][]float64, len(s.Theta)),
		Fits:      make([]lagFitJSON, len(s.Fits)),
		Residuals: make([]residualJSON, len(s.Residuals)),
	}
	for j, k := range tb.Keys {
		out.Columns[j] = k.String()
	}
	for i, a := range s.Phi {
		out.Phi[i] = roundRows(tsMatrix.Rows(a))
	}
	for i, b := range s.Theta {
		out.Theta[i] = roundRows(tsMatrix.Rows(b))
	}
	for i, f := range s.Fits {
		fj := lagFitJSON{Term: f.Term, Lag: f.Lag, Rank: f.Rank, RSS: roundAll(f.RSS), RSquared: make([]*float64, len(f.RSquared))}
		for j, r2 := range f.RSquared {
			if !math.IsNaN(r2) {
				v := usage.Round(r2)
				fj.RSquared[j] = &v
			}
		}
		out.Fits[i] = fj
	}
	for j, d := range s.Residuals {
		rj := residualJSON{Column: tb.Keys[d.Column].String(), Hist: d.Hist}
		if d.Err != nil {
			rj.Error = d.Err.Error()
		} else {
			rj.Q = usage.Round(d.LjungBox.Q)
			rj.DF = d.LjungBox.DF
			rj.PValue = usage.Round(d.LjungBox.PValue)
			rj.Reject = d.LjungBox.Reject
			rj.ACF = roundAll(d.LjungBox.ACF)
		}
		out.Residuals[j] = rj
	}
	writeSuccess(w, out)
}

// fit 读取 -> 透视 -> 拟合
func (h *Handler) fit(r *http.Request) (*usage.Table, *varma.Model, error) {
	rows, err := h.store.List(r.Context())
	if err != nil {
		return nil, nil, err
	}
	tb, err := usage.Pivot(rows)
	if err != nil {
		return nil, nil, err
	}
	model, err := varma.New(h.model.P, h.model.Q)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	if err := model.Fit(tb.Values); err != nil {
		return nil, nil, err
	}
	staticLog.Log.WithFields(logrus.Fields{
		"order":   model.Order().String(),
		"weeks":   len(tb.Weeks),
		"users":   len(tb.Keys),
		"missing": tb.Missing(),
		"elapsed": time.Since(start),
	}).Info("fitted usage model")
	return tb, model, nil
}

func roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = usage.Round(x)
	}
	return out
}

func roundRows(rows [][]float64) [][]float64 {
	for i := range rows {
		rows[i] = roundAll(rows[i])
	}
	return rows
}

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), envelope{Status: "error", Message: err.Error()})
}

// writeJSON 先完整编码再写状态码，编码失败时返回 500
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		staticLog.Log.Errorf("encode response: %v", err)
		buf.Reset()
		status = http.StatusInternalServerError
		json.NewEncoder(&buf).Encode(envelope{Status: "error", Message: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// statusOf 数据/参数问题 400，其余 500
func statusOf(err error) int {
	switch errorx.CodeOf(err) {
	case errCode.EMPTY_VALUE, errCode.INVALID_VALUE, errCode.INVALID_PARAMETER,
		errCode.INSUFFICIENT_DATA, errCode.DIMENSION_MISMATCH, errCode.PRECONDITION:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		staticLog.Log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  rec.status,
			"elapsed": time.Since(start),
		}).Info("request")
	})
}
