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

package mysql_test

import (
	"os"
	"testing"

	"github.com/blinklabs-io/certreg/database/models"
	"github.com/blinklabs-io/certreg/database/plugin/metadata/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDsn(t *testing.T) {
	store := mysql.NewWithOptions(
		mysql.WithHost("db.example"),
		mysql.WithPort(3307),
		mysql.WithUser("registry"),
		mysql.WithPassword("secret"),
		mysql.WithDatabase("certs"),
		mysql.WithSSLMode("skip-verify"),
	)
	dsn := store.Dsn()
	assert.Contains(t, dsn, "registry:secret@tcp(db.example:3307)/certs?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tls=skip-verify")

	store = mysql.NewWithOptions(mysql.WithDSN(" u:p@tcp(h)/db "))
	assert.Equal(t, "u:p@tcp(h)/db", store.Dsn())
}

func TestCloseBeforeStart(t *testing.T) {
	store := mysql.NewWithOptions()
	assert.NoError(t, store.Close())
}

// TestMysqlIndex runs against a live server when MYSQL_DSN is set
func TestMysqlIndex(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	store := mysql.NewWithOptions(mysql.WithDSN(dsn))
	require.NoError(t, store.Start())
	defer store.Stop() //nolint:errcheck

	txn := store.Transaction()
	defer txn.Rollback() //nolint:errcheck
	cert := &models.Certificate{
		ID:         ^uint64(0) >> 1,
		Address:    []byte("mysql-test-address-0000000000000"),
		IssuerName: "Acme",
		Active:     true,
	}
	require.NoError(t, store.SetCertificate(cert, txn))
	got, err := store.GetCertificate(cert.ID, txn)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.IssuerName)
}
