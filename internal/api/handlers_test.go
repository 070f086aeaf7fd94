package api_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/split-proj/atmsplit/internal/aggregate"
	"github.com/split-proj/atmsplit/internal/api"
	"github.com/split-proj/atmsplit/internal/api/mocks"
	"github.com/split-proj/atmsplit/internal/config"
	"github.com/split-proj/atmsplit/internal/format"
	"github.com/split-proj/atmsplit/internal/importer"
	"github.com/split-proj/atmsplit/internal/ingest"
	"github.com/split-proj/atmsplit/internal/report"
)

const bdoFile = "H|001|01/03/2025|JUAN DELA CRUZ|ACCT|12345678901234|X|Y|Z|1500.50\n" +
	"H|002|01/03/2025|MARIA SANTOS|ACCT|12349999000011|X|Y|Z|250.25\n"

func newServer(t *testing.T, proc api.Processor) *httptest.Server {
	t.Helper()
	cfg := config.Default().Server
	cfg.RateEvery = 0
	h := api.NewHandler(proc, format.Default, aggregate.DefaultOptions(), 1<<20)
	srv := httptest.NewServer(api.NewRouter(h, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	srv := newServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(api.RequestIDHeader))
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().
		Submit(gomock.Any(), "BDO_0103.txt", []byte(bdoFile)).
		Return("abc-123")

	srv := newServer(t, proc)
	body, ct := multipartBody(t, "BDO_0103.txt", bdoFile)
	resp, err := http.Post(srv.URL+"/api/upload-file", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out api.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "abc-123", out.ProcessingID)
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		want     string
	}{
		{"empty", "a.txt", "  \n", "file is empty"},
		{"binary", "a.txt", "abc\x00def", "file appears to be binary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			proc := mocks.NewMockProcessor(ctrl)
			srv := newServer(t, proc)

			body, ct := multipartBody(t, tt.filename, tt.content)
			resp, err := http.Post(srv.URL+"/api/upload-file", ct, body)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decodeError(t, resp))
		})
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv := newServer(t, mocks.NewMockProcessor(gomock.NewController(t)))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/upload-file", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no file part", decodeError(t, resp))
}

func TestStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Status("missing").Return(nil, ingest.ErrNotFound)
	proc.EXPECT().Status("running").Return(&ingest.Result{
		ID: "running", Filename: "a.txt", Status: ingest.StatusProcessing, Progress: 10,
	}, nil)

	srv := newServer(t, proc)

	resp, err := http.Get(srv.URL + "/api/processing-status/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/processing-status/running")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res ingest.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, ingest.StatusProcessing, res.Status)
	assert.Equal(t, 10, res.Progress)
}

func TestSummary(t *testing.T) {
	res, err := ingest.Process("BDO_0103.txt", []byte(bdoFile), importer.Options{})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Status(res.ID).Return(res, nil).Times(2)

	srv := newServer(t, proc)

	resp, err := http.Get(srv.URL + "/api/summary/" + res.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.SummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{aggregate.AllTypes, "BDO"}, out.PaymentTypes)
	assert.Equal(t, "₱1,750.75", out.Summary.GrandTotal)
	assert.Equal(t, "100%", out.Summary.GrandTotalPercentage)
	assert.Empty(t, out.Problems)

	resp2, err := http.Get(srv.URL + "/api/summary/" + res.ID + "?filter=SM")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var filtered api.SummaryResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&filtered))
	assert.Equal(t, "SM", filtered.Summary.Filter)
	assert.Equal(t, "₱0.00", filtered.Summary.GrandTotal)
}

func TestSummaryNotComplete(t *testing.T) {
	ctrl := gomock.NewController(t)
	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Status("x").Return(&ingest.Result{ID: "x", Status: ingest.StatusProcessing}, nil)

	srv := newServer(t, proc)
	resp, err := http.Get(srv.URL + "/api/summary/x")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGenerateReport(t *testing.T) {
	res, err := ingest.Process("BDO_0103.txt", []byte(bdoFile), importer.Options{})
	require.NoError(t, err)

	in := report.Input{
		ProcessedData:    res.ProcessedData,
		RawContents:      res.RawContents,
		Separator:        res.Separator,
		OriginalFilename: "BDO_0103.txt",
	}
	payload, err := json.Marshal(in)
	require.NoError(t, err)

	srv := newServer(t, nil)
	resp, err := http.Post(srv.URL+"/api/generate-report", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "BDO_0103_report.zip")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, report.SummaryCSV)
	assert.Contains(t, names, report.SummaryXLSX)
}

func TestGenerateReportBadJSON(t *testing.T) {
	srv := newServer(t, nil)
	resp, err := http.Post(srv.URL+"/api/generate-report", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	cfg := config.Default().Server
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	h := api.NewHandler(nil, nil, aggregate.DefaultOptions(), 1<<20)
	srv := httptest.NewServer(api.NewRouter(h, cfg))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/upload-file", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default().Server
	cfg.RateEvery = time.Hour
	cfg.RateBurst = 1
	h := api.NewHandler(nil, nil, aggregate.DefaultOptions(), 1<<20)
	srv := httptest.NewServer(api.NewRouter(h, cfg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
