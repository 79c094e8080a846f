// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	testDefs := []struct {
		url      string
		expected PaginationParams
	}{
		{"/api/v1/certificates", PaginationParams{Count: 100, Page: 1, Order: "asc"}},
		{"/api/v1/certificates?count=25&page=3&order=DESC", PaginationParams{Count: 25, Page: 3, Order: "desc"}},
		{"/api/v1/certificates?count=999&page=0", PaginationParams{Count: 100, Page: 1, Order: "asc"}},
		{"/api/v1/certificates?count=-4&page=-2", PaginationParams{Count: 1, Page: 1, Order: "asc"}},
	}
	for _, testDef := range testDefs {
		req := httptest.NewRequest(http.MethodGet, testDef.url, nil)
		params, err := ParsePagination(req)
		require.NoError(t, err, testDef.url)
		assert.Equal(t, testDef.expected, params, testDef.url)
	}
}

func TestParsePaginationInvalid(t *testing.T) {
	for _, url := range []string{
		"/api/v1/certificates?count=abc",
		"/api/v1/certificates?page=1.5",
		"/api/v1/certificates?order=sideways",
	} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		params, err := ParsePagination(req)
		require.ErrorIs(t, err, ErrInvalidPaginationParameters, url)
		assert.Equal(t, PaginationParams{}, params)
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	SetPaginationHeaders(
		recorder,
		250,
		PaginationParams{Count: 100, Page: 2, Order: "asc"},
	)
	assert.Equal(t, "250", recorder.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", recorder.Header().Get("X-Pagination-Page-Total"))
	assert.Equal(t, "2", recorder.Header().Get("X-Pagination-Page"))

	recorder = httptest.NewRecorder()
	SetPaginationHeaders(recorder, -1, PaginationParams{Count: 0, Page: 1})
	assert.Equal(t, "0", recorder.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "0", recorder.Header().Get("X-Pagination-Page-Total"))
}
