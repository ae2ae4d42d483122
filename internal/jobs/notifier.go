package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/segyhp/deposit-engine/internal/domain"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/segyhp/deposit-engine/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// MaturityNotification is the message published for a due alert.
type MaturityNotification struct {
	AlertID           string `json:"alert_id"`
	PositionID        string `json:"position_id"`
	UserID            string `json:"user_id"`
	MaturityDate      string `json:"maturity_date"`
	PrincipalAmount   string `json:"principal_amount"`
	EstimatedInterest string `json:"estimated_interest"`
	RenewalOption     string `json:"renewal_option"`
	NewTermMonths     *int   `json:"new_term_months,omitempty"`
}

func newMaturityNotification(alert *domain.MaturityAlert) MaturityNotification {
	return MaturityNotification{
		AlertID:           alert.ID.String(),
		PositionID:        alert.PositionID.String(),
		UserID:            alert.UserID,
		MaturityDate:      alert.MaturityDate.Format(utils.DateLayout),
		PrincipalAmount:   alert.PrincipalAmount.StringFixed(2),
		EstimatedInterest: alert.EstimatedInterest.StringFixed(2),
		RenewalOption:     string(alert.RenewalOption),
		NewTermMonths:     alert.NewTermMonths,
	}
}

// RedisNotifier publishes alerts on a redis channel for downstream delivery.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
	}
}

func (n *RedisNotifier) NotifyMaturity(ctx context.Context, alert *domain.MaturityAlert) error {
	payload, err := json.Marshal(newMaturityNotification(alert))
	if err != nil {
		return fmt.Errorf("failed to encode maturity notification: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

// LogNotifier writes alerts to the log.
type LogNotifier struct{}

func (LogNotifier) NotifyMaturity(_ context.Context, alert *domain.MaturityAlert) error {
	n := newMaturityNotification(alert)
	log.WithFields(log.Fields{
		"alert_id":           n.AlertID,
		"position_id":        n.PositionID,
		"user_id":            n.UserID,
		"maturity_date":      n.MaturityDate,
		"estimated_interest": n.EstimatedInterest,
		"renewal_option":     n.RenewalOption,
	}).Info("Deposit maturing soon")
	return nil
}
