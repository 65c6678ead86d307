package warehouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/store"
)

// ClientInput holds the editable fields of a client
type ClientInput struct {
	Name   string `json:"name"`
	Phone1 string `json:"phone1"`
	Phone2 string `json:"phone2,omitempty"`
}

func (in ClientInput) validate() (ClientInput, error) {
	in.Name = clean(in.Name)
	in.Phone1 = clean(in.Phone1)
	in.Phone2 = clean(in.Phone2)
	if in.Name == "" {
		return in, domain.Invalid("name", "client name is required")
	}
	if in.Phone1 == "" {
		return in, domain.Invalid("phone1", "first phone number is required")
	}
	return in, nil
}

// ListClients returns every client in insertion order
func (s *Service) ListClients(ctx context.Context) ([]domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Get(ctx, s.st, store.ClientsKey)
}

// GetClient returns one client
func (s *Service) GetClient(ctx context.Context, id string) (domain.Client, error) {
	clients, err := s.ListClients(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	for _, c := range clients {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Client{}, domain.NotFound("client", id)
}

func (s *Service) checkPhone(sn *snapshot, in ClientInput, self string, warnings *Warnings) error {
	for _, c := range sn.clients {
		if c.ID != self && c.Phone1 == in.Phone1 {
			return s.duplicate(warnings, "phone1", fmt.Sprintf("client %q already uses phone %s", c.Name, in.Phone1))
		}
	}
	return nil
}

// CreateClient adds a client
func (s *Service) CreateClient(ctx context.Context, in ClientInput) (domain.Client, Warnings, error) {
	in, err := in.validate()
	if err != nil {
		return domain.Client{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Client{}, nil, err
	}
	var warnings Warnings
	if err := s.checkPhone(sn, in, "", &warnings); err != nil {
		return domain.Client{}, nil, err
	}

	c := domain.Client{ID: s.newID(), Name: in.Name, Phone1: in.Phone1, Phone2: in.Phone2}
	sn.clients = append(sn.clients, c)
	sn.touch(store.ClientsKey.Name)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Client{}, nil, err
	}
	return c, warnings, nil
}

// UpdateClient edits a client. Past entries keep the client name they were written with.
func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (domain.Client, Warnings, error) {
	in, err := in.validate()
	if err != nil {
		return domain.Client{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return domain.Client{}, nil, err
	}
	i := sn.clientIndex(id)
	if i < 0 {
		return domain.Client{}, nil, domain.NotFound("client", id)
	}
	var warnings Warnings
	if err := s.checkPhone(sn, in, id, &warnings); err != nil {
		return domain.Client{}, nil, err
	}

	sn.clients[i] = domain.Client{ID: id, Name: in.Name, Phone1: in.Phone1, Phone2: in.Phone2}
	sn.touch(store.ClientsKey.Name)

	if err := s.commit(ctx, sn); err != nil {
		return domain.Client{}, nil, err
	}
	return sn.clients[i], warnings, nil
}

// DeleteClient removes a client and its entries, then recomputes every room
// that lost an entry.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := sn.clientIndex(id)
	if i < 0 {
		return domain.NotFound("client", id)
	}

	sn.clients = append(sn.clients[:i], sn.clients[i+1:]...)
	var affected []string
	kept := sn.entries[:0]
	for _, e := range sn.entries {
		if e.ClientID == id {
			affected = append(affected, e.RoomID)
			continue
		}
		kept = append(kept, e)
	}
	sn.entries = kept
	sn.touch(store.ClientsKey.Name, store.EntriesKey.Name)
	s.recompute(sn, affected...)

	if err := s.commit(ctx, sn); err != nil {
		return err
	}
	s.log.Info("client deleted",
		zap.String("client_id", id),
		zap.Int("entries_removed", len(affected)),
	)
	return nil
}
