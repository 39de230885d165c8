package riot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Row is one record of a fetched resource, tagged with the identity it belongs to
type Row[T any] struct {
	Name     string
	Identity Identity
	Record   T
}

func summonerPath(name string) string {
	return "/lol/summoner/v3/summoners/by-name/" + url.PathEscape(name)
}

func championMasteryPath(id Identity) string {
	return "/lol/champion-mastery/v3/champion-masteries/by-summoner/" + url.PathEscape(id.SummonerID)
}

func leaguePath(id Identity) string {
	return "/lol/league/v3/leagues/by-summoner/" + url.PathEscape(id.SummonerID)
}

func positionPath(id Identity) string {
	return "/lol/league/v3/positions/by-summoner/" + url.PathEscape(id.SummonerID)
}

func masteriesPath(id Identity) string {
	return "/lol/platform/v3/masteries/by-summoner/" + url.PathEscape(id.SummonerID)
}

func matchListPath(accountID string) string {
	return "/lol/match/v3/matchlists/by-account/" + url.PathEscape(accountID)
}

func matchPath(gameID int64) string {
	return "/lol/match/v3/matches/" + strconv.FormatInt(gameID, 10)
}

// FetchChampionMastery returns one row per champion mastery entry of every player
func (c *Client) FetchChampionMastery(ctx context.Context, names []string) ([]Row[ChampionMastery], error) {
	return fetchList[ChampionMastery](ctx, c, names, EndpointChampionMastery, championMasteryPath)
}

// FetchLeague returns one row per league the players belong to
func (c *Client) FetchLeague(ctx context.Context, names []string) ([]Row[LeagueList], error) {
	return fetchList[LeagueList](ctx, c, names, EndpointLeague, leaguePath)
}

// FetchPosition returns one row per ranked queue position of every player
func (c *Client) FetchPosition(ctx context.Context, names []string) ([]Row[LeaguePosition], error) {
	return fetchList[LeaguePosition](ctx, c, names, EndpointPosition, positionPath)
}

// FetchMasteries returns the mastery pages of every player, one row per player
func (c *Client) FetchMasteries(ctx context.Context, names []string) ([]Row[MasteryPages], error) {
	return fetchObject[MasteryPages](ctx, c, names, EndpointMasteries, masteriesPath)
}

// FetchMatchLists returns the match list of every player, one row per player
func (c *Client) FetchMatchLists(ctx context.Context, names []string) ([]Row[MatchList], error) {
	return fetchObject[MatchList](ctx, c, names, EndpointMatchList, func(id Identity) string {
		return matchListPath(id.AccountID)
	})
}

// fetchList resolves names, then fetches an array resource per identity and
// concatenates the elements in resolution order. Any failure aborts the batch.
func fetchList[T any](ctx context.Context, c *Client, names []string, endpoint string, path func(Identity) string) ([]Row[T], error) {
	set, err := c.ResolveIdentities(ctx, names)
	if err != nil {
		return nil, err
	}

	var rows []Row[T]
	for _, id := range set.Identities() {
		var records []T
		if err := c.doRequest(ctx, endpoint, path(id), &records); err != nil {
			return nil, fmt.Errorf("fetch %s for %q: %w", endpoint, id.DisplayName, err)
		}
		for _, record := range records {
			rows = append(rows, Row[T]{Name: id.DisplayName, Identity: id, Record: record})
		}
	}
	return rows, nil
}

// fetchObject is fetchList for endpoints returning a single object per identity
func fetchObject[T any](ctx context.Context, c *Client, names []string, endpoint string, path func(Identity) string) ([]Row[T], error) {
	set, err := c.ResolveIdentities(ctx, names)
	if err != nil {
		return nil, err
	}

	rows := make([]Row[T], 0, set.Len())
	for _, id := range set.Identities() {
		var record T
		if err := c.doRequest(ctx, endpoint, path(id), &record); err != nil {
			return nil, fmt.Errorf("fetch %s for %q: %w", endpoint, id.DisplayName, err)
		}
		rows = append(rows, Row[T]{Name: id.DisplayName, Identity: id, Record: record})
	}
	return rows, nil
}
