// Package account owns accounts and their transactions: local storage
// interfaces, the services that mutate them and publish the corresponding
// domain events, and the listeners that apply events and serve requests
// arriving over the broker.
package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is owned by the account subsystem.
type Account struct {
	ID       uuid.UUID `json:"accountId" gorm:"type:uuid;primaryKey;column:account_id"`
	ClientID uuid.UUID `json:"clientId" gorm:"type:uuid;index;column:client_id"`
	Number   int64     `json:"accountNumber" gorm:"column:account_number"`
	Type     string    `json:"accountType" gorm:"column:account_type"`
	Balance  float64   `json:"balance"`
	Active   bool      `json:"status" gorm:"column:status"`
}

func (Account) TableName() string { return "accounts" }

// Patch is the allow-listed set of account fields a partial update may touch.
// Nil fields are left unchanged.
type Patch struct {
	Number  *int64   `json:"accountNumber"`
	Type    *string  `json:"accountType"`
	Balance *float64 `json:"balance"`
}

// Transaction is immutable once settled except for administrative correction
// via TransactionPatch.
type Transaction struct {
	ID        uuid.UUID `json:"transactionId" gorm:"type:uuid;primaryKey;column:transaction_id"`
	AccountID uuid.UUID `json:"accountId" gorm:"type:uuid;index;column:account_id"`
	ClientID  uuid.UUID `json:"clientId" gorm:"type:uuid;column:client_id"`
	Amount    float64   `json:"amount"`
	Credit    bool      `json:"credit"`
	Date      time.Time `json:"transactionDate" gorm:"column:transaction_date"`
}

func (Transaction) TableName() string { return "transactions" }

// TransactionPatch is the allow-listed administrative correction of a settled
// transaction: amount, credit/debit flag and timestamp, by id.
type TransactionPatch struct {
	Amount *float64   `json:"amount"`
	Credit *bool      `json:"credit"`
	Date   *time.Time `json:"transactionDate"`
}
