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
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/blinklabs-io/certreg/identity"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const RequestIdHeader = "X-Request-Id"

type contextKey int

const (
	requestIdKey contextKey = iota
	callerKey
)

func requestIdFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIdKey).(string)
	return v
}

func callerFromContext(ctx context.Context) (identity.Identity, bool) {
	v, ok := ctx.Value(callerKey).(identity.Identity)
	return v, ok
}

// requestId propagates an incoming X-Request-Id or assigns a new one
func requestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIdHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIdHeader, id)
		ctx := context.WithValue(r.Context(), requestIdKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", requestIdFromContext(r.Context()),
		)
	})
}

// requireAuth resolves the caller identity from the bearer token
func (a *Api) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(
				w,
				http.StatusUnauthorized,
				codeUnauthorized,
				"missing bearer token",
			)
			return
		}
		caller, err := ParseToken(a.config.JwtSecret, token)
		if err != nil {
			writeError(
				w,
				http.StatusUnauthorized,
				codeUnauthorized,
				err.Error(),
			)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
