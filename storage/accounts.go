package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/next-trace/scg-banking-services/account"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// AccountStore implements account.Store on gorm.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore { return &AccountStore{db: db} }

var _ account.Store = (*AccountStore)(nil)

func (s *AccountStore) List(ctx context.Context) ([]account.Account, error) {
	var out []account.Account
	if err := s.db.WithContext(ctx).Order("account_id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return out, nil
}

func (s *AccountStore) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var a account.Account

	err := s.db.WithContext(ctx).First(&a, "account_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, berr.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}

	return &a, nil
}

func (s *AccountStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]account.Account, error) {
	var out []account.Account
	if err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("account_id").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list accounts of client %s: %w", clientID, err)
	}

	return out, nil
}

func (s *AccountStore) Create(ctx context.Context, accounts []account.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&accounts).Error; err != nil {
		return fmt.Errorf("create accounts: %w", err)
	}

	return nil
}

func (s *AccountStore) Update(ctx context.Context, a account.Account) error {
	res := s.db.WithContext(ctx).
		Model(&account.Account{}).
		Where("account_id = ?", a.ID).
		Select("*").
		Omit("account_id").
		Updates(a)
	if res.Error != nil {
		return fmt.Errorf("update account %s: %w", a.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", a.ID, berr.ErrNotFound)
	}

	return nil
}

func (s *AccountStore) Patch(ctx context.Context, id uuid.UUID, p account.Patch) (*account.Account, error) {
	var a account.Account

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "account_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %s: %w", id, berr.ErrNotFound)
			}

			return err
		}

		if p.Number != nil {
			a.Number = *p.Number
		}

		if p.Type != nil {
			a.Type = *p.Type
		}

		if p.Balance != nil {
			a.Balance = *p.Balance
		}

		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, fmt.Errorf("patch account %s: %w", id, err)
	}

	return &a, nil
}

func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&account.Account{}, "account_id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete account %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", id, berr.ErrNotFound)
	}

	return nil
}

func (s *AccountStore) DeleteAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&account.Account{}).Error
	if err != nil {
		return fmt.Errorf("delete all accounts: %w", err)
	}

	return nil
}

func (s *AccountStore) DeactivateByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&account.Account{}).
		Where("client_id = ? AND status = ?", clientID, true).
		Update("status", false)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate accounts of client %s: %w", clientID, res.Error)
	}

	return res.RowsAffected, nil
}

// TransactionStore implements account.TransactionStore on gorm.
type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore { return &TransactionStore{db: db} }

var _ account.TransactionStore = (*TransactionStore)(nil)

func (s *TransactionStore) List(ctx context.Context) ([]account.Transaction, error) {
	var out []account.Transaction
	if err := s.db.WithContext(ctx).Order("transaction_date").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return out, nil
}

func (s *TransactionStore) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	var tx account.Transaction

	err := s.db.WithContext(ctx).First(&tx, "transaction_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("transaction %s: %w", id, berr.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}

	return &tx, nil
}

func (s *TransactionStore) ListByAccountBetween(
	ctx context.Context,
	accountID uuid.UUID,
	from, to time.Time,
) ([]account.Transaction, error) {
	var out []account.Transaction
	if err := s.db.WithContext(ctx).
		Where("account_id = ? AND transaction_date >= ? AND transaction_date <= ?", accountID, from, to).
		Order("transaction_date").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list transactions of account %s: %w", accountID, err)
	}

	return out, nil
}

func (s *TransactionStore) Create(ctx context.Context, txs []account.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&txs).Error; err != nil {
		return fmt.Errorf("create transactions: %w", err)
	}

	return nil
}

func (s *TransactionStore) Patch(
	ctx context.Context,
	id uuid.UUID,
	p account.TransactionPatch,
) (*account.Transaction, error) {
	var tx account.Transaction

	err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.First(&tx, "transaction_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("transaction %s: %w", id, berr.ErrNotFound)
			}

			return err
		}

		if p.Amount != nil {
			tx.Amount = *p.Amount
		}

		if p.Credit != nil {
			tx.Credit = *p.Credit
		}

		if p.Date != nil {
			tx.Date = *p.Date
		}

		return dbtx.Save(&tx).Error
	})
	if err != nil {
		return nil, fmt.Errorf("patch transaction %s: %w", id, err)
	}

	return &tx, nil
}

func (s *TransactionStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&account.Transaction{}, "transaction_id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete transaction %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", id, berr.ErrNotFound)
	}

	return nil
}

func (s *TransactionStore) DeleteAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&account.Transaction{}).Error
	if err != nil {
		return fmt.Errorf("delete all transactions: %w", err)
	}

	return nil
}
