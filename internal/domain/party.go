package domain

import (
	"time"

	"github.com/google/uuid"
)

type PartyRole string

const (
	PartyRoleCustomer PartyRole = "customer"
	PartyRoleSupplier PartyRole = "supplier"
)

type Counterparty struct {
	ID        uuid.UUID
	Name      string
	Role      PartyRole
	Currency  Currency
	CreatedAt time.Time
}
