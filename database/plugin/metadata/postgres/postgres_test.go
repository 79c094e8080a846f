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

package postgres_test

import (
	"os"
	"testing"

	"github.com/blinklabs-io/certreg/database/models"
	"github.com/blinklabs-io/certreg/database/plugin/metadata/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDsn(t *testing.T) {
	store := postgres.NewWithOptions(
		postgres.WithHost("db.example"),
		postgres.WithPort(6543),
		postgres.WithUser("registry"),
		postgres.WithPassword("secret"),
		postgres.WithDatabase("certs"),
		postgres.WithTimeZone("UTC"),
	)
	assert.Equal(
		t,
		"host=db.example user=registry password=secret dbname=certs port=6543 sslmode=disable TimeZone=UTC",
		store.Dsn(),
	)
	store = postgres.NewWithOptions(postgres.WithDSN(" postgres://u@h/db "))
	assert.Equal(t, "postgres://u@h/db", store.Dsn())
}

func TestCloseBeforeStart(t *testing.T) {
	store := postgres.NewWithOptions()
	assert.NoError(t, store.Close())
}

// TestPostgresIndex runs against a live server when POSTGRES_DSN is set
func TestPostgresIndex(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	store := postgres.NewWithOptions(postgres.WithDSN(dsn))
	require.NoError(t, store.Start())
	defer store.Stop() //nolint:errcheck

	txn := store.Transaction()
	defer txn.Rollback() //nolint:errcheck
	cert := &models.Certificate{
		ID:         ^uint64(0) >> 1,
		Address:    []byte("postgres-test-address-0000000000"),
		IssuerName: "Acme",
		Active:     true,
	}
	require.NoError(t, store.SetCertificate(cert, txn))
	got, err := store.GetCertificate(cert.ID, txn)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.IssuerName)
}
