package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/geoindex"
	"github.com/cobrun/geoprefix/health"
	"github.com/cobrun/geoprefix/logging"
	"github.com/cobrun/geoprefix/prefixtree"
	"github.com/cobrun/geoprefix/strategy"
	pkgtesting "github.com/cobrun/geoprefix/testing"
	"github.com/cobrun/geoprefix/testing/fixtures"
	"github.com/cobrun/geoprefix/testing/mocks"
)

type testAPI struct {
	handler http.Handler
	store   *mocks.MockStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	grid, err := prefixtree.NewGeohashPrefixTree(prefixtree.GeoWorldBounds, 9)
	if err != nil {
		t.Fatalf("NewGeohashPrefixTree() error = %v", err)
	}
	s, err := strategy.New("location", grid)
	if err != nil {
		t.Fatalf("strategy.New() error = %v", err)
	}
	store := mocks.NewMockStore()
	checker := health.NewChecker("test")
	checker.AddCheck("postings", health.StoreCheck(store, 0), true)

	return &testAPI{
		handler: NewRouter(RouterConfig{
			Index:   geoindex.New(s, store),
			Checker: checker,
			Logger:  logging.Nop(),
		}),
		store: store,
	}
}

func (a *testAPI) do(t *testing.T, req *pkgtesting.HTTPTestRequest) *pkgtesting.HTTPTestResponse {
	t.Helper()
	return pkgtesting.ExecuteRequest(t, a.handler, req.Build(t))
}

func (a *testAPI) loadCities(t *testing.T) {
	t.Helper()
	for _, c := range fixtures.Cities() {
		a.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPut, "/v1/documents/"+c.ID).
			WithBody(GeometryRequest{Geometry: c.Geometry})).AssertOK()
	}
}

func errorCode(t *testing.T, resp *pkgtesting.HTTPTestResponse) string {
	t.Helper()
	var body errors.ErrorResponse
	resp.DecodeJSON(&body)
	return body.Error.Code
}

func TestHandler_GetCell(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name      string
		token     string
		wantLevel int
		wantLeaf  bool
	}{
		{"bare", "u33", 3, false},
		{"leaf", "u33+", 3, true},
		{"finest", "u33dc0cpp", 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cell CellResponse
			api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodGet, "/v1/cells/"+tt.token)).
				AssertOK().
				DecodeData(&cell)

			if cell.Level != tt.wantLevel {
				t.Errorf("level = %d, want %d", cell.Level, tt.wantLevel)
			}
			if cell.Leaf != tt.wantLeaf {
				t.Errorf("leaf = %v, want %v", cell.Leaf, tt.wantLeaf)
			}
			if !cell.Bounds.ContainsPoint(cell.Center) {
				t.Errorf("center %v outside bounds %v", cell.Center, cell.Bounds)
			}
		})
	}
}

func TestHandler_GetCellInvalid(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodGet, "/v1/cells/u3a")).
		AssertStatus(http.StatusBadRequest)
	if code := errorCode(t, resp); code != errors.CodeDecode {
		t.Errorf("code = %q, want %q", code, errors.CodeDecode)
	}
}

func TestHandler_Tokens(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name    string
		purpose string
		want    int
	}{
		{"default is index", "", 10},
		{"index", PurposeIndex, 10},
		{"query", PurposeQuery, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TokensResponse
			api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPost, "/v1/tokens").
				WithBody(TokensRequest{Geometry: fixtures.BerlinPoint, Purpose: tt.purpose})).
				AssertOK().
				DecodeData(&got)

			if len(got.Tokens) != tt.want {
				t.Errorf("len(tokens) = %d, want %d: %v", len(got.Tokens), tt.want, got.Tokens)
			}
			if got.Purpose == "" {
				t.Error("purpose is empty")
			}
		})
	}
}

func TestHandler_BadRequests(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       []byte
		wantStatus int
		wantCode   string
	}{
		{"invalid json", http.MethodPost, "/v1/search/intersects", []byte(`{`), http.StatusBadRequest, errors.CodeBadRequest},
		{"missing geometry", http.MethodPost, "/v1/documents", []byte(`{}`), http.StatusBadRequest, errors.CodeValidation},
		{"bad purpose", http.MethodPost, "/v1/tokens", pkgtesting.MustJSON(TokensRequest{Geometry: fixtures.BerlinPoint, Purpose: "all"}), http.StatusBadRequest, errors.CodeValidation},
		{"bad geometry", http.MethodPost, "/v1/documents", []byte(`{"geometry":{"type":"Circle"}}`), http.StatusUnprocessableEntity, errors.CodeInvalidShape},
		{"negative limit", http.MethodPost, "/v1/search/nearest", pkgtesting.MustJSON(NearestRequest{Point: fixtures.BerlinPoint, Limit: -1}), http.StatusBadRequest, errors.CodeValidation},
		{"point off the world", http.MethodPost, "/v1/search/nearest", pkgtesting.MustJSON(NearestRequest{Point: json.RawMessage(`{"type":"Point","coordinates":[200,10]}`)}), http.StatusBadRequest, errors.CodeValidation},
		{"document off the world", http.MethodPut, "/v1/documents/ghost", pkgtesting.MustJSON(GeometryRequest{Geometry: json.RawMessage(`{"type":"Point","coordinates":[200,10]}`)}), http.StatusBadRequest, errors.CodeValidation},
		{"created document off the world", http.MethodPost, "/v1/documents", pkgtesting.MustJSON(GeometryRequest{Geometry: json.RawMessage(`{"type":"Point","coordinates":[10,95]}`)}), http.StatusBadRequest, errors.CodeValidation},
		{"search off the world", http.MethodPost, "/v1/search/intersects", pkgtesting.MustJSON(GeometryRequest{Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[[[170,0],[190,0],[190,5],[170,5],[170,0]]]}`)}), http.StatusBadRequest, errors.CodeValidation},
		{"filter off the world", http.MethodPost, "/v1/search/nearest", pkgtesting.MustJSON(NearestRequest{Point: fixtures.BerlinPoint, Filter: json.RawMessage(`{"type":"Point","coordinates":[-181,0]}`)}), http.StatusBadRequest, errors.CodeValidation},
		{"nearest from polygon", http.MethodPost, "/v1/search/nearest", pkgtesting.MustJSON(NearestRequest{Point: fixtures.BerlinArea}), http.StatusUnprocessableEntity, errors.CodeInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(t, pkgtesting.NewHTTPTestRequest(tt.method, tt.path).WithRawBody(tt.body)).
				AssertStatus(tt.wantStatus)
			if code := errorCode(t, resp); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestHandler_RejectedDocumentNotStored(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPut, "/v1/documents/ghost").
		WithBody(GeometryRequest{Geometry: json.RawMessage(`{"type":"Point","coordinates":[200,10]}`)})).
		AssertStatus(http.StatusBadRequest)

	if calls := api.store.Calls("add"); calls != 0 {
		t.Errorf("store add calls = %d, want 0", calls)
	}
	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodDelete, "/v1/documents/ghost")).
		AssertStatus(http.StatusNotFound)
}

func TestHandler_DocumentLifecycle(t *testing.T) {
	api := newTestAPI(t)

	var created DocumentResponse
	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPost, "/v1/documents").
		WithBody(GeometryRequest{Geometry: fixtures.ParisPoint})).
		AssertStatus(http.StatusCreated).
		DecodeData(&created)
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Errorf("created id %q is not a UUID", created.ID)
	}

	var put DocumentResponse
	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPut, "/v1/documents/berlin").
		WithBody(GeometryRequest{Geometry: fixtures.BerlinPoint})).
		AssertOK().
		DecodeData(&put)
	if put.ID != "berlin" {
		t.Errorf("id = %q, want berlin", put.ID)
	}
	if terms := api.store.Terms("berlin"); len(terms) != 10 {
		t.Errorf("len(terms) = %d, want 10", len(terms))
	}

	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodDelete, "/v1/documents/berlin")).
		AssertStatus(http.StatusNoContent)
	resp := api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodDelete, "/v1/documents/berlin")).
		AssertStatus(http.StatusNotFound)
	if code := errorCode(t, resp); code != errors.CodeNotFound {
		t.Errorf("code = %q, want %q", code, errors.CodeNotFound)
	}
}

func TestHandler_Intersects(t *testing.T) {
	api := newTestAPI(t)
	api.loadCities(t)

	tests := []struct {
		name  string
		query json.RawMessage
		want  []string
	}{
		{"berlin area", fixtures.BerlinArea, []string{"berlin", "potsdam"}},
		{"sydney", fixtures.SydneyPoint, []string{"sydney"}},
		{"nothing", json.RawMessage(`{"type":"Point","coordinates":[-100,-60]}`), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got IntersectsResponse
			api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPost, "/v1/search/intersects").
				WithBody(GeometryRequest{Geometry: tt.query})).
				AssertOK().
				DecodeData(&got)

			if len(got.Documents) != len(tt.want) {
				t.Fatalf("documents = %v, want %v", got.Documents, tt.want)
			}
			for i := range tt.want {
				if got.Documents[i] != tt.want[i] {
					t.Errorf("documents = %v, want %v", got.Documents, tt.want)
					break
				}
			}
		})
	}
}

func TestHandler_Nearest(t *testing.T) {
	api := newTestAPI(t)
	api.loadCities(t)

	var got NearestResponse
	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPost, "/v1/search/nearest").
		WithBody(NearestRequest{Point: fixtures.ParisPoint, Filter: fixtures.TriangleEurope, Limit: 2})).
		AssertOK().
		DecodeData(&got)

	want := []string{"paris", "potsdam"}
	if len(got.Documents) != len(want) {
		t.Fatalf("documents = %+v, want %v", got.Documents, want)
	}
	for i, id := range want {
		if got.Documents[i].ID != id {
			t.Errorf("documents[%d] = %q, want %q", i, got.Documents[i].ID, id)
		}
	}
	if got.Documents[0].Distance > got.Documents[1].Distance {
		t.Errorf("distances not ascending: %+v", got.Documents)
	}
}

func TestHandler_StoreUnavailable(t *testing.T) {
	api := newTestAPI(t)
	api.store.FailOn("docs", errors.Unavailable("store down"))

	resp := api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodPost, "/v1/search/intersects").
		WithBody(GeometryRequest{Geometry: fixtures.BerlinArea})).
		AssertStatus(http.StatusServiceUnavailable)
	if code := errorCode(t, resp); code != errors.CodeUnavailable {
		t.Errorf("code = %q, want %q", code, errors.CodeUnavailable)
	}
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)

	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodGet, "/health/live")).AssertOK()
	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodGet, "/health/ready")).AssertOK()

	api.store.SetPingError(errors.Unavailable("store down"))
	var resp health.HealthResponse
	api.do(t, pkgtesting.NewHTTPTestRequest(http.MethodGet, "/health/ready")).
		AssertStatus(http.StatusServiceUnavailable).
		DecodeJSON(&resp)
	if resp.Status != health.StatusUnhealthy {
		t.Errorf("status = %q, want %q", resp.Status, health.StatusUnhealthy)
	}
}
