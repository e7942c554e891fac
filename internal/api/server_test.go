package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/internal/store"
)

// testResponse mirrors APIResponse with Data left undecoded.
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	s := New(cfg, st)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
		st.Close()
	})
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body interface{}) (int, testResponse) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	var out testResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: failed to decode response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func decodeData(t *testing.T, r testResponse, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("failed to decode data %s: %v", r.Data, err)
	}
}

func TestHandleRoot(t *testing.T) {
	_, ts := newTestServer(t, Config{Version: "1.2.3"})

	status, resp := do(t, ts, http.MethodGet, "/", nil)
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("GET / = %d, success %v", status, resp.Success)
	}
	var data map[string]interface{}
	decodeData(t, resp, &data)
	if data["name"] != "bibleref" || data["version"] != "1.2.3" {
		t.Errorf("GET / data = %v", data)
	}

	status, resp = do(t, ts, http.MethodGet, "/nonexistent", nil)
	if status != http.StatusNotFound || resp.Error == nil || resp.Error.Code != CodeNotFound {
		t.Errorf("GET /nonexistent = %d, %+v", status, resp.Error)
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	do(t, ts, http.MethodGet, "/parse?q=gen+1", nil)
	do(t, ts, http.MethodGet, "/parse?q=Gen+1", nil)

	status, resp := do(t, ts, http.MethodGet, "/health", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var h HealthInfo
	decodeData(t, resp, &h)
	if h.Status != "healthy" || h.Version != "dev" {
		t.Errorf("health = %+v", h)
	}
	if h.Cache.Size != 1 || h.Cache.Hits != 1 {
		t.Errorf("cache stats = %+v, want size 1 and 1 hit", h.Cache)
	}

	status, resp = do(t, ts, http.MethodPost, "/health", nil)
	if status != http.StatusMethodNotAllowed || resp.Error.Code != CodeMethodNotAllowed {
		t.Errorf("POST /health = %d, %+v", status, resp.Error)
	}
}

func TestHandleBooks(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		query string
		count int
		first string
	}{
		{"", 66, "Genesis"},
		{"?testament=OT", 39, "Genesis"},
		{"?testament=nt", 27, "Matthew"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, resp := do(t, ts, http.MethodGet, "/books"+tt.query, nil)
			if status != http.StatusOK {
				t.Fatalf("status = %d", status)
			}
			var books []BookInfo
			decodeData(t, resp, &books)
			if len(books) != tt.count || resp.Meta.Total != tt.count {
				t.Errorf("got %d books (total %d), want %d", len(books), resp.Meta.Total, tt.count)
			}
			if books[0].Name != tt.first {
				t.Errorf("first book = %q, want %q", books[0].Name, tt.first)
			}
			if books[0].ChapterVerses != nil {
				t.Error("list should not include chapter verses")
			}
		})
	}

	status, resp := do(t, ts, http.MethodGet, "/books?testament=apocrypha", nil)
	if status != http.StatusBadRequest || resp.Error.Code != CodeInvalidRequest {
		t.Errorf("bad testament = %d, %+v", status, resp.Error)
	}
}

func TestHandleBook(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	for _, id := range []string{"Jude", "jude", "jud"} {
		status, resp := do(t, ts, http.MethodGet, "/books/"+id, nil)
		if status != http.StatusOK {
			t.Fatalf("GET /books/%s = %d", id, status)
		}
		var b BookInfo
		decodeData(t, resp, &b)
		if b.Name != "Jude" || b.Index != 65 || !b.SingleChapter || b.Testament != "NT" {
			t.Errorf("GET /books/%s = %+v", id, b)
		}
		if len(b.ChapterVerses) != 1 || b.ChapterVerses[0] != 25 || b.Verses != 25 {
			t.Errorf("GET /books/%s verses = %v (%d)", id, b.ChapterVerses, b.Verses)
		}
	}

	status, resp := do(t, ts, http.MethodGet, "/books/Tobit", nil)
	if status != http.StatusNotFound || resp.Error.Code != CodeNotFound {
		t.Errorf("GET /books/Tobit = %d, %+v", status, resp.Error)
	}
}

func TestHandleParse(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantText   string
		wantCode   string
		wantMsg    string
	}{
		{"verse", "jn 3:16", http.StatusOK, "John 3:16", "", ""},
		{"chapter", "Genesis 1", http.StatusOK, "Genesis 1:1-31", "", ""},
		{"cross book", "Gen 50 - Exod 1", http.StatusOK, "Genesis 50:1 - Exodus 1:22", "", ""},
		{"empty", "", http.StatusBadRequest, "", CodeNoReference, "No reference found"},
		{"garbage", "hello", http.StatusBadRequest, "", CodeInvalidReference, "No valid reference found"},
		{"order", "Exodus 1 - Genesis 1", http.StatusUnprocessableEntity, "", CodeOrder, "End book must come after start book"},
		{"bounds", "Gen 51", http.StatusUnprocessableEntity, "", CodeBounds, "Genesis only has 50 chapters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := url.Values{"q": {tt.query}}
			status, resp := do(t, ts, http.MethodGet, "/parse?"+q.Encode(), nil)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if resp.Success || resp.Error == nil {
					t.Fatalf("expected error response, got %+v", resp)
				}
				if resp.Error.Code != tt.wantCode || resp.Error.Message != tt.wantMsg {
					t.Errorf("error = %+v, want %s %q", resp.Error, tt.wantCode, tt.wantMsg)
				}
				return
			}
			var info ReferenceInfo
			decodeData(t, resp, &info)
			if info.Text != tt.wantText {
				t.Errorf("text = %q, want %q", info.Text, tt.wantText)
			}
		})
	}
}

func TestReferenceInfo(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	_, resp := do(t, ts, http.MethodGet, "/parse?q=Jude+3-5", nil)
	var info ReferenceInfo
	decodeData(t, resp, &info)

	want := ReferenceInfo{
		Text:       "Jude 3-5",
		OSIS:       "Jude.1.3-Jude.1.5",
		Start:      PointInfo{Book: "Jude", BookOSIS: "Jude", Chapter: 1, Verse: 3},
		End:        PointInfo{Book: "Jude", BookOSIS: "Jude", Chapter: 1, Verse: 5},
		VerseCount: 3,
	}
	want.Encoded.Start, want.Encoded.End = 65001003, 65001005
	if info != want {
		t.Errorf("reference = %+v\nwant %+v", info, want)
	}
}

func TestHandleDecode(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		query      string
		wantStatus int
		wantText   string
		wantCode   string
	}{
		{"start=1001001&end=1001003", http.StatusOK, "Genesis 1:1-3", ""},
		{"start=65001003&end=65001003", http.StatusOK, "Jude 3", ""},
		{"start=x&end=1", http.StatusBadRequest, "", CodeInvalidRequest},
		{"start=67001001&end=67001001", http.StatusBadRequest, "", CodeInvalidBook},
		{"start=1001003&end=1001001", http.StatusUnprocessableEntity, "", CodeOrder},
		{"start=1001040&end=1001040", http.StatusUnprocessableEntity, "", CodeBounds},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, resp := do(t, ts, http.MethodGet, "/decode?"+tt.query, nil)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want %s", resp.Error, tt.wantCode)
				}
				return
			}
			var info ReferenceInfo
			decodeData(t, resp, &info)
			if info.Text != tt.wantText {
				t.Errorf("text = %q, want %q", info.Text, tt.wantText)
			}
		})
	}
}

func TestHandleOSIS(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		query      string
		wantStatus int
		wantText   string
	}{
		{"Gen.1.1-Gen.1.3", http.StatusOK, "Genesis 1:1-3"},
		{"Ps.23", http.StatusOK, "Psalms 23:1-6"},
		{"Foo.1", http.StatusNotFound, ""},
		{"", http.StatusBadRequest, ""},
		{"Gen..1", http.StatusBadRequest, ""},
		{"Gen.1.1-", http.StatusBadRequest, ""},
		{"Gen.x", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, resp := do(t, ts, http.MethodGet, "/osis?ref="+url.QueryEscape(tt.query), nil)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%+v)", status, tt.wantStatus, resp.Error)
			}
			if status == http.StatusBadRequest && resp.Error.Code != CodeInvalidRequest {
				t.Errorf("code = %q, want %q", resp.Error.Code, CodeInvalidRequest)
			}
			if tt.wantText == "" {
				return
			}
			var info ReferenceInfo
			decodeData(t, resp, &info)
			if info.Text != tt.wantText {
				t.Errorf("text = %q, want %q", info.Text, tt.wantText)
			}
		})
	}
}

func TestSecurityAndRequestHeaders(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestRespondErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"bounds", errors.NewChapterBounds("Genesis", 50), http.StatusUnprocessableEntity, CodeBounds, "Genesis only has 50 chapters"},
		{"parse", errors.NewParse("OSIS", "", "bad"), http.StatusBadRequest, CodeInvalidRequest, "failed to parse OSIS: bad"},
		{"conflict", fmt.Errorf("collection %q: %w", "a", errors.ErrAlreadyExists), http.StatusConflict, CodeConflict, `collection "a": already exists`},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, CodeInternal, errors.ErrInternal.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondErr(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp testResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode || resp.Error.Message != tt.wantMsg {
				t.Errorf("error = %+v, want %s %q", resp.Error, tt.wantCode, tt.wantMsg)
			}
		})
	}
}
