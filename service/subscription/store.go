package subscription

import (
	"errors"
	"fmt"
	"strings"

	"github.com/boxable/subbox-server/cmd/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AlreadySubscribedError means the customer already has a subscription for
// this box. The duplicate attempt was charged before the conflict could be
// detected; the charge is not reversed, so the customer is told the box ships
// anyway.
type AlreadySubscribedError struct {
	BoxID string
}

func (e *AlreadySubscribedError) Error() string {
	return fmt.Sprintf("already subscribed to %s", e.BoxID)
}

// PersistenceError is any other database failure after a successful charge.
// The billing token is lost with the rollback, so the customer has to place a
// new order.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting subscription: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store writes billing and subscription records.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateWithBilling inserts the billing row and its subscription row in one
// transaction. Both rows exist afterwards or neither does; every failure path
// rolls back before returning.
func (s *Store) CreateWithBilling(billing *models.Billing, sub *models.Subscription) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return &PersistenceError{Err: tx.Error}
	}

	if err := tx.Create(billing).Error; err != nil {
		tx.Rollback()
		return s.classify(err, sub.BoxID)
	}

	if err := tx.Create(sub).Error; err != nil {
		tx.Rollback()
		return s.classify(err, sub.BoxID)
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return s.classify(err, sub.BoxID)
	}

	return nil
}

// classify maps a database error onto the customer-facing taxonomy. Unique
// violations on the (name, box_id) key are the expected outcome of a duplicate
// signup racing or repeating; everything else is a persistence failure.
func (s *Store) classify(err error, boxID string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &AlreadySubscribedError{BoxID: boxID}
	}
	if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "UNIQUE constraint") {
		return &AlreadySubscribedError{BoxID: boxID}
	}
	return &PersistenceError{Err: err}
}
