package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kevin07696/nuvei-gateway/internal/adapters/nuvei"
	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
)

func (tx txFlags) billing() models.Billing {
	return models.Billing{
		Address1: tx.address1,
		Postcode: tx.postcode,
		Country:  tx.country,
		Phone:    tx.phone,
		Email:    tx.email,
	}
}

func (tx txFlags) options() nuvei.Options {
	return nuvei.Options{
		Description: tx.description,
		IPAddress:   tx.ipAddress,
		MailOrder:   tx.mailOrder,
		SECCode:     models.SECCode(tx.secCode),
	}
}

// instrument picks the payment instrument from whichever flags are set
func (tx txFlags) instrument() (models.Instrument, error) {
	switch {
	case tx.cardRef != "":
		month, year, err := parseExpiry(tx.expiry)
		if err != nil {
			return nil, err
		}
		return &models.StoredCard{
			Reference:   tx.cardRef,
			FirstName:   tx.firstName,
			LastName:    tx.lastName,
			ExpiryMonth: month,
			ExpiryYear:  year,
			CVV:         tx.cvv,
			Billing:     tx.billing(),
		}, nil

	case tx.achRef != "":
		return &models.StoredBankAccount{
			Reference:     tx.achRef,
			RoutingNumber: tx.routingNumber,
			FirstName:     tx.firstName,
			LastName:      tx.lastName,
			CheckType:     tx.checkType,
			Billing:       tx.billing(),
		}, nil

	case tx.accountNumber != "" || tx.routingNumber != "":
		return &models.BankAccount{
			FirstName:     tx.firstName,
			LastName:      tx.lastName,
			AccountNumber: tx.accountNumber,
			RoutingNumber: tx.routingNumber,
			CheckType:     tx.checkType,
			Billing:       tx.billing(),
		}, nil

	case tx.cardNumber != "" || tx.trackData != "":
		month, year, err := parseExpiry(tx.expiry)
		if err != nil {
			return nil, err
		}
		return &models.Card{
			FirstName:   tx.firstName,
			LastName:    tx.lastName,
			Number:      tx.cardNumber,
			ExpiryMonth: month,
			ExpiryYear:  year,
			CVV:         tx.cvv,
			TrackData:   tx.trackData,
			Billing:     tx.billing(),
		}, nil
	}
	return nil, errors.New("one of -card, -track, -card-ref, -account or -ach-ref is required")
}

// parseExpiry reads MMYY; an empty string leaves the expiry unset
func parseExpiry(mmyy string) (int, int, error) {
	if mmyy == "" {
		return 0, 0, nil
	}
	if len(mmyy) != 4 {
		return 0, 0, fmt.Errorf("expiry must be MMYY, got %q", mmyy)
	}
	month, err := strconv.Atoi(mmyy[:2])
	if err != nil {
		return 0, 0, fmt.Errorf("expiry month: %w", err)
	}
	year, err := strconv.Atoi(mmyy[2:])
	if err != nil {
		return 0, 0, fmt.Errorf("expiry year: %w", err)
	}
	return month, 2000 + year, nil
}
