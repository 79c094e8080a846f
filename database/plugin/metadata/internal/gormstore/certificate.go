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

package gormstore

import (
	"errors"
	"strings"

	"github.com/blinklabs-io/certreg/database/models"
	"github.com/blinklabs-io/certreg/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetCertificate inserts or replaces the index row for a certificate
func (s *Store) SetCertificate(
	cert *models.Certificate,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(cert)
	return result.Error
}

// GetCertificate returns the index row for a certificate, or nil if absent
func (s *Store) GetCertificate(
	id uint64,
	txn types.Txn,
) (*models.Certificate, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Certificate
	result := db.Where("id = ?", id).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListCertificates returns the certificates matching filter along with the
// total number of matches before pagination
func (s *Store) ListCertificates(
	filter models.CertificateFilter,
	txn types.Txn,
) ([]models.Certificate, int64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.Certificate{})
	if len(filter.Owner) > 0 {
		query = query.Where("owner = ?", filter.Owner)
	}
	if len(filter.Creator) > 0 {
		query = query.Where("creator = ?", filter.Creator)
	}
	if filter.IssuerName != "" {
		query = query.Where(
			"LOWER(issuer_name) LIKE ? ESCAPE '\\'",
			"%"+escapeLike(strings.ToLower(filter.IssuerName))+"%",
		)
	}
	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	// New session so the count does not leak into the row query
	query = query.Session(&gorm.Session{})
	var total int64
	if result := query.Count(&total); result.Error != nil {
		return nil, 0, result.Error
	}
	rows := query.Order(clause.OrderByColumn{
		Column: clause.Column{Name: "id"},
		Desc:   filter.Descending,
	})
	if filter.Limit > 0 {
		rows = rows.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		rows = rows.Offset(filter.Offset)
	}
	var ret []models.Certificate
	if result := rows.Find(&ret); result.Error != nil {
		return nil, 0, result.Error
	}
	return ret, total, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
