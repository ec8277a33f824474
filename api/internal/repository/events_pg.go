package repository

import (
	"encoding/json"
	"fmt"

	"checkout/api/internal/domain"
	"checkout/api/internal/infra/postgres"

	"gorm.io/gorm"
)

type EventsRepo struct {
}

func InitEventsRepo() *EventsRepo {
	return &EventsRepo{}
}

func (r *EventsRepo) Create(tx *gorm.DB, eventType string, eventRelationID uint, key string, payload string) error {
	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("invalid payload: %s", payload)
	}

	_, err := r.Find(tx, key)
	if err == nil {
		return nil
	}
	if !postgres.IsNotFound(err) {
		return err
	}

	err = tx.Create(&domain.Events{Type: eventType, RelationID: eventRelationID, Key: key, Payload: payload, Status: domain.EVENT_STATUS_NEW}).Error
	// created concurrently
	if postgres.IsUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *EventsRepo) Done(tx *gorm.DB, eventID uint) error {
	return tx.Model(&domain.Events{}).Where("id = ?", eventID).Update("status", domain.EVENT_STATUS_DONE).Error
}

func (r *EventsRepo) Retry(tx *gorm.DB, eventID uint) error {
	return tx.Model(&domain.Events{}).Where("id = ?", eventID).Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *EventsRepo) FindNew(tx *gorm.DB, eventType string, limit int) ([]domain.Events, error) {
	var events []domain.Events
	return events, tx.Where(&domain.Events{Type: eventType, Status: domain.EVENT_STATUS_NEW}).Order("id").Limit(limit).Find(&events).Error
}

func (r *EventsRepo) Find(tx *gorm.DB, key string) (*domain.Events, error) {
	var existsEvent domain.Events
	return &existsEvent, tx.Where(&domain.Events{Key: key}).First(&existsEvent).Error
}
