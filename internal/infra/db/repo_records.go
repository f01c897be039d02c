package db

import (
	"context"
	"errors"

	"github.com/chive-pub/chive-sub016/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) GetRecord(ctx context.Context, uri string) (*domain.Record, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model RecordModel
	err := r.db.WithContext(ctx).First(&model, "uri = ?", uri).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return recordFromModel(model), nil
}

func (r *RecordRepository) GetRecordByPreviousVersion(ctx context.Context, prevURI string) (*domain.Record, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model RecordModel
	err := r.db.WithContext(ctx).First(&model, "previous_version_uri = ?", prevURI).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return recordFromModel(model), nil
}

// IndexRecord upserts by URI and reports whether the record was newly indexed.
// Replays are safe: an existing row is refreshed in place.
func (r *RecordRepository) IndexRecord(ctx context.Context, record domain.Record) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var existing RecordModel
	err := r.db.WithContext(ctx).First(&existing, "uri = ?", record.URI).Error
	fresh := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !fresh {
		return false, err
	}
	model := recordToModel(record)
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uri"}},
		DoUpdates: clause.AssignmentColumns([]string{"cid", "revision_notes", "indexed_at"}),
	}).Create(&model).Error
	if err != nil {
		return false, err
	}
	return fresh, nil
}

func recordFromModel(model RecordModel) *domain.Record {
	return &domain.Record{
		URI:                model.URI,
		CID:                model.CID,
		DID:                model.DID,
		Collection:         model.Collection,
		PreviousVersionURI: model.PreviousVersionURI,
		RevisionNotes:      model.RevisionNotes,
		CreatedAt:          model.CreatedAt,
		IndexedAt:          model.IndexedAt,
	}
}

func recordToModel(record domain.Record) RecordModel {
	return RecordModel{
		URI:                record.URI,
		CID:                record.CID,
		DID:                record.DID,
		Collection:         record.Collection,
		PreviousVersionURI: record.PreviousVersionURI,
		RevisionNotes:      record.RevisionNotes,
		CreatedAt:          record.CreatedAt,
		IndexedAt:          record.IndexedAt,
	}
}
