package db

import "time"

type OriginServerModel struct {
	ID                 string    `gorm:"type:uuid;primaryKey"`
	Endpoint           string    `gorm:"uniqueIndex;not null"`
	Status             string    `gorm:"not null"`
	RegistrationReason string
	RegisteredAt       time.Time `gorm:"not null"`
}

func (OriginServerModel) TableName() string { return "origin_servers" }

type RecordModel struct {
	URI                string    `gorm:"column:uri;primaryKey"`
	CID                string    `gorm:"column:cid;not null"`
	DID                string    `gorm:"column:did;index;not null"`
	Collection         string    `gorm:"index"`
	PreviousVersionURI string    `gorm:"index"`
	RevisionNotes      string
	CreatedAt          time.Time `gorm:"not null"`
	IndexedAt          time.Time `gorm:"not null"`
}

func (RecordModel) TableName() string { return "records" }
