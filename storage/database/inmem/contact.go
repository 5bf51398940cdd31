package inmemdb

import (
	"context"

	"github.com/tscswap/backend/core/present"
	"github.com/tscswap/backend/core/swap"
)

type contactRepository struct {
	swap *swapRepository
}

var _ present.ContactDirectory = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *DB) *contactRepository {
	return &contactRepository{swap: NewSwapRepository(db)}
}

func (repo *contactRepository) GetContacts(ctx context.Context, refs []swap.Ref) (map[swap.Ref]present.Contact, error) {
	contacts := make(map[swap.Ref]present.Contact, len(refs))
	for _, ref := range refs {
		if _, ok := contacts[ref]; ok {
			continue
		}
		src, err := repo.source(ctx, ref)
		if err == swap.ErrParticipantNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		contacts[ref] = present.ContactOf(src)
	}
	return contacts, nil
}

func (repo *contactRepository) source(ctx context.Context, ref swap.Ref) (swap.Source, error) {
	switch ref.Kind {
	case swap.KindAccount:
		id, err := ref.AccountID()
		if err != nil {
			return nil, swap.ErrParticipantNotFound
		}
		acc, err := repo.swap.GetAccount(ctx, id)
		return acc, err
	case swap.KindListing:
		lst, err := repo.swap.GetListing(ctx, ref.ID)
		return lst, err
	}
	return nil, swap.ErrParticipantNotFound
}
