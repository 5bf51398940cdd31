package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/present"
	"github.com/tscswap/backend/core/swap"
)

type contactRepository struct {
	swap *swapRepository
}

var _ present.ContactDirectory = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(exec core.DBExecutor) *contactRepository {
	return &contactRepository{swap: NewSwapRepository(exec)}
}

func (repo contactRepository) GetContacts(ctx context.Context, refs []swap.Ref) (map[swap.Ref]present.Contact, error) {
	contacts := make(map[swap.Ref]present.Contact, len(refs))
	for _, ref := range refs {
		if _, ok := contacts[ref]; ok {
			continue
		}
		var src swap.Source
		var err error
		switch ref.Kind {
		case swap.KindAccount:
			var id int
			if id, err = ref.AccountID(); err != nil {
				continue
			}
			src, err = repo.swap.GetAccount(ctx, id)
		case swap.KindListing:
			src, err = repo.swap.GetListing(ctx, ref.ID)
		default:
			continue
		}
		if errors.Cause(err) == swap.ErrParticipantNotFound {
			continue
		}
		if err != nil {
			return nil, wrapErrf(err, "getting contact %s", ref)
		}
		contacts[ref] = present.ContactOf(src)
	}
	return contacts, nil
}
