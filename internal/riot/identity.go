package riot

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Identity is a display name resolved to the platform's stable identifiers
type Identity struct {
	DisplayName string
	AccountID   string
	SummonerID  string
}

// IdentitySet holds the identities of one resolution call keyed by display name.
// Order lists the names in resolution order.
type IdentitySet struct {
	byName map[string]Identity
	order  []string
}

// Get returns the identity resolved for name
func (s *IdentitySet) Get(name string) (Identity, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Order returns the resolved names in resolution order
func (s *IdentitySet) Order() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of resolved identities
func (s *IdentitySet) Len() int {
	return len(s.order)
}

// Identities returns the identities in resolution order
func (s *IdentitySet) Identities() []Identity {
	out := make([]Identity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// IdentityResult is the outcome of resolving a single name
type IdentityResult struct {
	Name     string
	Identity Identity
	Err      error
}

// ResolveIdentities resolves every unique name with one lookup each. The first
// failure aborts the batch and no partial set is returned.
func (c *Client) ResolveIdentities(ctx context.Context, names []string) (*IdentitySet, error) {
	results, err := c.resolve(ctx, names, true)
	if err != nil {
		return nil, err
	}

	set := &IdentitySet{byName: make(map[string]Identity, len(results))}
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		set.byName[r.Name] = r.Identity
		set.order = append(set.order, r.Name)
	}
	return set, nil
}

// ResolveEach resolves every unique name independently, returning one result per
// name. A failed lookup is recorded in its result and does not stop the batch. The
// returned error is reserved for invalid input and cancellation.
func (c *Client) ResolveEach(ctx context.Context, names []string) ([]IdentityResult, error) {
	return c.resolve(ctx, names, false)
}

func (c *Client) resolve(ctx context.Context, names []string, stopOnError bool) ([]IdentityResult, error) {
	unique, err := uniqueNames(names)
	if err != nil {
		return nil, err
	}

	results := make([]IdentityResult, 0, len(unique))
	for _, name := range unique {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := c.resolveOne(ctx, name)
		results = append(results, IdentityResult{Name: name, Identity: id, Err: err})
		if err != nil {
			c.logger.Infow("identity lookup failed", "name", name, "error", err)
			if stopOnError {
				break
			}
		}
	}
	return results, nil
}

func (c *Client) resolveOne(ctx context.Context, name string) (Identity, error) {
	summoner, err := c.GetSummonerByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, &NotFoundError{Name: name}
		}
		return Identity{}, fmt.Errorf("resolve %q: %w", name, err)
	}
	return Identity{
		DisplayName: name,
		AccountID:   string(summoner.AccountID),
		SummonerID:  string(summoner.ID),
	}, nil
}

// uniqueNames validates names and drops duplicates, keeping first occurrences
func uniqueNames(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	unique := make([]string, 0, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("name at index %d: %w", i, ErrEmptyName)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	return unique, nil
}
