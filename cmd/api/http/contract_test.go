package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/matryer/is"
	whiskeyhttp "github.com/whiskey-inventory/cmd/api/http"
	"github.com/whiskey-inventory/cmd/api/inmemory"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

const baseURL = "http://localhost:8080"

// contractClient sends requests to a server backed by the in-memory store and
// checks every exchange against the embedded OpenAPI document.
type contractClient struct {
	handler http.Handler
	router  routers.Router
}

func newContractClient(t *testing.T) *contractClient {
	t.Helper()
	is := is.New(t)

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(whiskeyhttp.OpenAPISpec)
	is.NoErr(err)
	is.NoErr(doc.Validate(loader.Context))

	router, err := gorillamux.NewRouter(doc)
	is.NoErr(err)

	store, err := inmemory.NewInMemoryStore()
	is.NoErr(err)
	handler := whiskeyhttp.NewWhiskeyHandler(whiskey.NewService(store))
	server := whiskeyhttp.NewServer(whiskeyhttp.ServerConfig{RequestTimeout: 5 * time.Second}, handler, store)

	return &contractClient{handler: server.Handler, router: router}
}

// do validates the request and response against the contract and returns the status and body.
func (c *contractClient) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	is := is.New(t)
	ctx := context.Background()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		is.NoErr(err)
	}

	validationReq := httptest.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	if body != nil {
		validationReq.Header.Set("content-type", "application/json")
	}
	route, pathParams, err := c.router.FindRoute(validationReq)
	is.NoErr(err)

	requestInput := &openapi3filter.RequestValidationInput{
		Request:    validationReq,
		PathParams: pathParams,
		Route:      route,
	}
	is.NoErr(openapi3filter.ValidateRequest(ctx, requestInput))

	request := httptest.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	if body != nil {
		request.Header.Set("content-type", "application/json")
	}
	recorder := httptest.NewRecorder()
	c.handler.ServeHTTP(recorder, request)

	res := recorder.Result()
	respBody, err := io.ReadAll(res.Body)
	is.NoErr(err)

	responseInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: requestInput,
		Status:                 res.StatusCode,
		Header:                 res.Header,
		Options:                &openapi3filter.Options{IncludeResponseStatus: true},
	}
	responseInput.SetBodyBytes(respBody)
	is.NoErr(openapi3filter.ValidateResponse(ctx, responseInput))

	return res.StatusCode, respBody
}

func (c *contractClient) create(t *testing.T, body map[string]any) whiskeyhttp.WhiskeyResponse {
	t.Helper()
	is := is.New(t)

	status, raw := c.do(t, http.MethodPost, "/whiskeys", body)
	is.Equal(status, http.StatusCreated)

	var created whiskeyhttp.WhiskeyResponse
	is.NoErr(json.Unmarshal(raw, &created))
	return created
}

func decodePage(is *is.I, raw []byte) whiskeyhttp.PageResponse {
	is.Helper()
	var page whiskeyhttp.PageResponse
	is.NoErr(json.Unmarshal(raw, &page))
	return page
}

func decodeErrorBody(is *is.I, raw []byte) whiskey.ErrResponse {
	is.Helper()
	var errResp whiskey.ErrResponse
	is.NoErr(json.Unmarshal(raw, &errResp))
	return errResp
}

func TestContractPagination(t *testing.T) {
	client := newContractClient(t)
	for i := 0; i < 3; i++ {
		client.create(t, map[string]any{"name": "Bottle"})
	}

	t.Run("limit defaults to 20", func(t *testing.T) {
		is := is.New(t)

		status, raw := client.do(t, http.MethodGet, "/whiskeys", nil)
		is.Equal(status, http.StatusOK)

		page := decodePage(is, raw)
		is.Equal(page.Meta.Limit, 20)
		is.Equal(page.Meta.Offset, 0)
		is.Equal(page.Meta.Total, 3)
		is.Equal(len(page.Items), 3)
	})

	t.Run("limit is capped at 100", func(t *testing.T) {
		is := is.New(t)

		_, raw := client.do(t, http.MethodGet, "/whiskeys?limit=500", nil)
		is.Equal(decodePage(is, raw).Meta.Limit, 100)

		_, raw = client.do(t, http.MethodGet, "/whiskeys?limit=2", nil)
		page := decodePage(is, raw)
		is.Equal(page.Meta.Limit, 2)
		is.Equal(len(page.Items), 2)
		is.Equal(page.Meta.Total, 3)
	})

	t.Run("offset pages through the results", func(t *testing.T) {
		is := is.New(t)

		_, raw := client.do(t, http.MethodGet, "/whiskeys?limit=2&offset=2", nil)
		page := decodePage(is, raw)
		is.Equal(page.Meta.Offset, 2)
		is.Equal(len(page.Items), 1)
	})
}

func TestContractSort(t *testing.T) {
	client := newContractClient(t)
	first := client.create(t, map[string]any{"name": "B first"})
	time.Sleep(2 * time.Millisecond)
	second := client.create(t, map[string]any{"name": "A second"})

	ids := func(is *is.I, raw []byte) []string {
		page := decodePage(is, raw)
		out := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			out = append(out, item.ID.String())
		}
		return out
	}

	t.Run("default is newest first", func(t *testing.T) {
		is := is.New(t)

		_, raw := client.do(t, http.MethodGet, "/whiskeys", nil)
		is.Equal(ids(is, raw), []string{second.ID.String(), first.ID.String()})
	})

	t.Run("malformed sort falls back to the default", func(t *testing.T) {
		is := is.New(t)

		for _, sort := range []string{"name", "name:sideways", "name:", ":asc"} {
			status, raw := client.do(t, http.MethodGet, "/whiskeys?sort="+sort, nil)
			is.Equal(status, http.StatusOK)
			is.Equal(ids(is, raw), []string{second.ID.String(), first.ID.String()})
		}
	})

	t.Run("explicit sort", func(t *testing.T) {
		is := is.New(t)

		_, raw := client.do(t, http.MethodGet, "/whiskeys?sort=name:asc", nil)
		is.Equal(ids(is, raw), []string{second.ID.String(), first.ID.String()})

		_, raw = client.do(t, http.MethodGet, "/whiskeys?sort=createdAt:asc", nil)
		is.Equal(ids(is, raw), []string{first.ID.String(), second.ID.String()})
	})

	t.Run("unknown sort field is a bad request", func(t *testing.T) {
		is := is.New(t)

		status, raw := client.do(t, http.MethodGet, "/whiskeys?sort=colour:asc", nil)
		is.Equal(status, http.StatusBadRequest)
		is.Equal(decodeErrorBody(is, raw).Code, whiskey.CodeBadRequest)
	})
}

func TestContractTimestamps(t *testing.T) {
	client := newContractClient(t)

	t.Run("created equals updated, mutations move updatedAt forward", func(t *testing.T) {
		is := is.New(t)

		created := client.create(t, map[string]any{"name": "Stamp"})
		is.Equal(created.CreatedAt, created.UpdatedAt)

		status, raw := client.do(t, http.MethodPatch, "/whiskeys/"+created.ID.String(), map[string]any{"quantity": 3})
		is.Equal(status, http.StatusOK)
		var patched whiskeyhttp.WhiskeyResponse
		is.NoErr(json.Unmarshal(raw, &patched))
		is.Equal(patched.ID, created.ID)
		is.Equal(patched.CreatedAt, created.CreatedAt)
		is.True(patched.UpdatedAt > created.UpdatedAt)

		status, raw = client.do(t, http.MethodPut, "/whiskeys/"+created.ID.String(), map[string]any{"name": "Stamp II"})
		is.Equal(status, http.StatusOK)
		var replaced whiskeyhttp.WhiskeyResponse
		is.NoErr(json.Unmarshal(raw, &replaced))
		is.Equal(replaced.ID, created.ID)
		is.Equal(replaced.CreatedAt, created.CreatedAt)
		is.True(replaced.UpdatedAt > patched.UpdatedAt)
		is.True(replaced.Quantity == nil)
	})
}

func TestContractPurchaseDate(t *testing.T) {
	client := newContractClient(t)

	t.Run("date round trips without drift", func(t *testing.T) {
		is := is.New(t)

		created := client.create(t, map[string]any{"name": "Dated", "purchaseDate": "2024-08-01"})

		status, raw := client.do(t, http.MethodGet, "/whiskeys/"+created.ID.String(), nil)
		is.Equal(status, http.StatusOK)

		var body map[string]any
		is.NoErr(json.Unmarshal(raw, &body))
		is.Equal(body["purchaseDate"], "2024-08-01")
	})

	t.Run("unparseable date is a bad request", func(t *testing.T) {
		is := is.New(t)

		status, raw := client.do(t, http.MethodPost, "/whiskeys", map[string]any{"name": "Dated", "purchaseDate": "01/08/2024"})
		is.Equal(status, http.StatusBadRequest)
		is.Equal(decodeErrorBody(is, raw).Code, whiskey.CodeBadRequest)
	})
}

func TestContractDelete(t *testing.T) {
	client := newContractClient(t)

	t.Run("second delete is a 404", func(t *testing.T) {
		is := is.New(t)

		created := client.create(t, map[string]any{"name": "Gone"})

		status, _ := client.do(t, http.MethodDelete, "/whiskeys/"+created.ID.String(), nil)
		is.Equal(status, http.StatusNoContent)

		status, raw := client.do(t, http.MethodDelete, "/whiskeys/"+created.ID.String(), nil)
		is.Equal(status, http.StatusNotFound)
		is.Equal(decodeErrorBody(is, raw).Code, whiskey.CodeNotFound)
	})
}

func TestContractFilters(t *testing.T) {
	client := newContractClient(t)
	speyside := client.create(t, map[string]any{"name": "Glen Example 12", "region": "Speyside", "abv": 40, "tags": []string{"single-malt"}})
	islay := client.create(t, map[string]any{"name": "Lag 16", "region": "Islay", "abv": 43, "tags": []string{"peat"}})
	highland := client.create(t, map[string]any{"name": "High 18", "region": "Highland", "abv": 46, "tags": []string{"highland"}})

	single := func(t *testing.T, path string) whiskeyhttp.WhiskeyResponse {
		t.Helper()
		is := is.New(t)
		status, raw := client.do(t, http.MethodGet, path, nil)
		is.Equal(status, http.StatusOK)
		page := decodePage(is, raw)
		is.Equal(page.Meta.Total, 1)
		is.Equal(len(page.Items), 1)
		return page.Items[0]
	}

	t.Run("region", func(t *testing.T) {
		is := is.New(t)
		is.Equal(single(t, "/whiskeys?region=Islay").ID, islay.ID)
		is.Equal(single(t, "/whiskeys?region=islay").ID, islay.ID)
	})

	t.Run("tag", func(t *testing.T) {
		is := is.New(t)
		is.Equal(single(t, "/whiskeys?tag=peat").ID, islay.ID)
	})

	t.Run("abv range", func(t *testing.T) {
		is := is.New(t)
		is.Equal(single(t, "/whiskeys?min_abv=44&max_abv=50").ID, highland.ID)
	})

	t.Run("text search", func(t *testing.T) {
		is := is.New(t)
		is.Equal(single(t, "/whiskeys?q=GLEN").ID, speyside.ID)
	})

	t.Run("filters compose", func(t *testing.T) {
		is := is.New(t)

		_, raw := client.do(t, http.MethodGet, "/whiskeys?region=Islay&tag=single-malt", nil)
		page := decodePage(is, raw)
		is.Equal(page.Meta.Total, 0)
		is.Equal(len(page.Items), 0)
	})
}

func TestContractPatchPreservesFields(t *testing.T) {
	client := newContractClient(t)

	t.Run("only supplied fields change", func(t *testing.T) {
		is := is.New(t)

		created := client.create(t, map[string]any{"name": "Original", "distillery": "D", "quantity": 1})

		status, raw := client.do(t, http.MethodPatch, "/whiskeys/"+created.ID.String(), map[string]any{"quantity": 5})
		is.Equal(status, http.StatusOK)

		var patched whiskeyhttp.WhiskeyResponse
		is.NoErr(json.Unmarshal(raw, &patched))
		is.Equal(patched.Name, "Original")
		is.Equal(*patched.Distillery, "D")
		is.Equal(*patched.Quantity, 5)
	})
}

func TestContractValidation(t *testing.T) {
	client := newContractClient(t)

	t.Run("name is required", func(t *testing.T) {
		is := is.New(t)

		// The document marks name as required, so the request itself is not validated here.
		request := httptest.NewRequest(http.MethodPost, baseURL+"/whiskeys", bytes.NewReader([]byte(`{"distillery":"X"}`)))
		recorder := httptest.NewRecorder()
		client.handler.ServeHTTP(recorder, request)

		is.Equal(recorder.Code, http.StatusBadRequest)
		is.Equal(decodeErrorBody(is, recorder.Body.Bytes()).Code, whiskey.CodeBadRequest)
	})

	t.Run("rating above 5 is rejected", func(t *testing.T) {
		is := is.New(t)

		status, raw := client.do(t, http.MethodPost, "/whiskeys", map[string]any{"name": "X", "rating": 6})
		is.Equal(status, http.StatusBadRequest)
		is.Equal(decodeErrorBody(is, raw).Code, whiskey.CodeBadRequest)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		is := is.New(t)

		status, raw := client.do(t, http.MethodGet, "/whiskeys/00000000-0000-0000-0000-000000000000", nil)
		is.Equal(status, http.StatusNotFound)
		is.Equal(decodeErrorBody(is, raw).Code, whiskey.CodeNotFound)
	})
}

func TestContractHealth(t *testing.T) {
	client := newContractClient(t)

	t.Run("liveness and readiness", func(t *testing.T) {
		is := is.New(t)

		status, _ := client.do(t, http.MethodGet, "/health", nil)
		is.Equal(status, http.StatusOK)

		status, _ = client.do(t, http.MethodGet, "/health/ready", nil)
		is.Equal(status, http.StatusOK)
	})
}
