package echoapi

import (
	"net/http"
	"testing"
)

func Test_locationApi(t *testing.T) {
	srv := setup(t)

	srv.run(t, []httpTest{
		{
			name:     "counties",
			method:   http.MethodGet,
			path:     "/v1/locations/counties",
			wantCode: http.StatusOK,
			wantData: []byte(`[
				{"id": 1, "name": "Mombasa"},
				{"id": 15, "name": "Kitui"},
				{"id": 32, "name": "Nakuru"},
				{"id": 42, "name": "Kisumu"},
				{"id": 47, "name": "Nairobi"}
			]`),
		},
		{
			name:     "counties by name desc",
			method:   http.MethodGet,
			path:     "/v1/locations/counties?ordering=-name",
			wantCode: http.StatusOK,
			wantData: []byte(`[
				{"id": 32, "name": "Nakuru"},
				{"id": 47, "name": "Nairobi"},
				{"id": 1, "name": "Mombasa"},
				{"id": 15, "name": "Kitui"},
				{"id": 42, "name": "Kisumu"}
			]`),
		},
		{
			name:     "constituencies",
			method:   http.MethodGet,
			path:     "/v1/locations/constituencies?county=42",
			wantCode: http.StatusOK,
			wantData: []byte(`[{"id": 42, "name": "Kisumu Central", "county": {"id": 42, "name": "Kisumu"}}]`),
		},
		{
			name:     "constituencies without county",
			method:   http.MethodGet,
			path:     "/v1/locations/constituencies",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "constituencies bad county",
			method:   http.MethodGet,
			path:     "/v1/locations/constituencies?county=abc",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "invalid value for county"}`),
		},
		{
			name:     "wards",
			method:   http.MethodGet,
			path:     "/v1/locations/wards?constituency=47",
			wantCode: http.StatusOK,
			wantData: []byte(`[{"id": 47, "name": "Nairobi Township"}]`),
		},
		{
			name:     "search",
			method:   http.MethodGet,
			path:     "/v1/locations/counties/search?name=%20NAIROBI",
			wantCode: http.StatusOK,
			wantData: []byte(`{"id": 47, "name": "Nairobi"}`),
		},
		{
			name:     "search with suggestions",
			method:   http.MethodGet,
			path:     "/v1/locations/counties/search?name=nairobbi",
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error": "county not found: nairobbi", "suggestions": ["Nairobi"]}`),
		},
	})
}
