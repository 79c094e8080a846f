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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (a *Api) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestId)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(
			w,
			http.StatusMethodNotAllowed,
			codeBadRequest,
			"method not allowed",
		)
	})
	r.Get("/health", a.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/registry", a.handleGetRegistry)
		r.Get("/certificates", a.handleListCertificates)
		r.Get("/certificates/{id}", a.handleGetCertificate)
		r.Get("/certificates/{id}/receipts", a.handleListReceipts)
		r.Get(
			"/certificates/{id}/receipts/{owner}/{index}",
			a.handleGetReceipt,
		)
		r.Get("/certificates/{id}/report", a.handleVerificationReport)
		r.Get("/accounts/{identity}/balance", a.handleGetBalance)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Post("/registry/initialize", a.handleInitialize)
			r.Put("/registry/settings", a.handleUpdateSettings)
			r.Post("/certificates", a.handleCreateCertificate)
			r.Post("/certificates/{id}/verify", a.handleVerifyCertificate)
			r.Post("/certificates/{id}/transfer", a.handleTransferCertificate)
			r.Get("/certificates/{id}/transfer-cost", a.handleTransferCost)
			if a.config.DevMode {
				r.Post("/accounts/{identity}/airdrop", a.handleAirdrop)
			}
		})
	})
	return r
}
