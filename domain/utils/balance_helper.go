package utils

import (
	"context"
	"fmt"

	"econsim/domain/entities"
	"econsim/domain/interfaces"
	"econsim/events"

	log "github.com/sirupsen/logrus"
)

// RecordBalanceChange records a balance history entry and emits the matching events.
// Every balance mutation in the domain goes through here.
func RecordBalanceChange(ctx context.Context, balanceHistoryRepo interfaces.BalanceHistoryRepository, eventPublisher interfaces.EventPublisher, history *entities.BalanceHistory) error {
	if err := history.Validate(); err != nil {
		return fmt.Errorf("invalid balance change: %w", err)
	}

	if err := balanceHistoryRepo.Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	event := events.BalanceChangeEvent{
		AccountID:       history.AccountID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	}
	log.WithFields(log.Fields{
		"accountID":       event.AccountID,
		"oldBalance":      event.OldBalance,
		"newBalance":      event.NewBalance,
		"transactionType": event.TransactionType,
		"changeAmount":    event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	if history.TransactionType == entities.TransactionTypeInitial {
		name, _ := history.TransactionMetadata["display_name"].(string)
		if err := eventPublisher.Publish(events.AccountActivatedEvent{
			AccountID:      history.AccountID,
			DisplayName:    name,
			InitialBalance: history.BalanceAfter,
		}); err != nil {
			log.WithError(err).Error("Failed to publish account activated event")
		}
	}

	return nil
}
