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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/certreg/database/models"
	"github.com/blinklabs-io/certreg/database/plugin"
	_ "github.com/blinklabs-io/certreg/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/certreg/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/certreg/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/certreg/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	plugin.Plugin

	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Certificate index
	SetCertificate(*models.Certificate, types.Txn) error
	GetCertificate(uint64, types.Txn) (*models.Certificate, error)
	ListCertificates(
		models.CertificateFilter,
		types.Txn,
	) ([]models.Certificate, int64, error)

	// Transfer receipt index
	AddTransferReceipt(*models.TransferReceipt, types.Txn) error
	GetTransferReceipts(uint64, types.Txn) ([]models.TransferReceipt, error)
}

// New returns the started metadata plugin selected by name
func New(pluginName string, env plugin.Environment) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, env)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
