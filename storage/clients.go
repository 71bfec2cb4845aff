package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/next-trace/scg-banking-services/client"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// ClientStore implements client.Store on gorm.
type ClientStore struct {
	db *gorm.DB
}

func NewClientStore(db *gorm.DB) *ClientStore { return &ClientStore{db: db} }

var _ client.Store = (*ClientStore)(nil)

func (s *ClientStore) List(ctx context.Context) ([]client.Profile, error) {
	var out []client.Profile
	if err := s.db.WithContext(ctx).Order("client_id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	return out, nil
}

func (s *ClientStore) Get(ctx context.Context, id uuid.UUID) (*client.Profile, error) {
	var p client.Profile

	err := s.db.WithContext(ctx).First(&p, "client_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("client %s: %w", id, berr.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}

	return &p, nil
}

func (s *ClientStore) Create(ctx context.Context, profiles []client.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&profiles).Error; err != nil {
		return fmt.Errorf("create clients: %w", err)
	}

	return nil
}

func (s *ClientStore) Update(ctx context.Context, p client.Profile) error {
	res := s.db.WithContext(ctx).
		Model(&client.Profile{}).
		Where("client_id = ?", p.ID).
		Select("*").
		Omit("client_id").
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("update client %s: %w", p.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", p.ID, berr.ErrNotFound)
	}

	return nil
}

func (s *ClientStore) Patch(ctx context.Context, id uuid.UUID, patch client.Patch) (*client.Profile, error) {
	var p client.Profile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "client_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("client %s: %w", id, berr.ErrNotFound)
			}

			return err
		}

		applyPatch(&p, patch)

		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, fmt.Errorf("patch client %s: %w", id, err)
	}

	return &p, nil
}

func (s *ClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&client.Profile{}, "client_id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete client %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", id, berr.ErrNotFound)
	}

	return nil
}

func (s *ClientStore) DeleteAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&client.Profile{}).Error
	if err != nil {
		return fmt.Errorf("delete all clients: %w", err)
	}

	return nil
}

func applyPatch(p *client.Profile, patch client.Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}

	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}

	if patch.Age != nil {
		p.Age = *patch.Age
	}

	if patch.Identification != nil {
		p.Identification = *patch.Identification
	}

	if patch.Address != nil {
		p.Address = *patch.Address
	}

	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}

	if patch.Active != nil {
		p.Active = *patch.Active
	}
}
