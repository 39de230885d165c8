package riot

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// ID is a platform identifier. The v3 endpoints return account and summoner IDs as
// JSON numbers while later versions use strings, so both are accepted.
type ID string

// UnmarshalJSON accepts a quoted string or a bare number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID(data)
	return nil
}

// SummonerResponse represents the response from /lol/summoner/v3/summoners/by-name/{name}
type SummonerResponse struct {
	ID            ID     `json:"id"`
	AccountID     ID     `json:"accountId"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int64  `json:"summonerLevel"`
	RevisionDate  int64  `json:"revisionDate"`
}

// ChampionMastery is one entry of /lol/champion-mastery/v3/champion-masteries/by-summoner/{summonerId}
type ChampionMastery struct {
	ChampionID                   int   `json:"championId"`
	ChampionLevel                int   `json:"championLevel"`
	ChampionPoints               int   `json:"championPoints"`
	ChampionPointsSinceLastLevel int64 `json:"championPointsSinceLastLevel"`
	ChampionPointsUntilNextLevel int64 `json:"championPointsUntilNextLevel"`
	ChestGranted                 bool  `json:"chestGranted"`
	LastPlayTime                 int64 `json:"lastPlayTime"`
	TokensEarned                 int   `json:"tokensEarned"`
	PlayerID                     ID    `json:"playerId"`
}

// LeagueList is one entry of /lol/league/v3/leagues/by-summoner/{summonerId}
type LeagueList struct {
	LeagueID string            `json:"leagueId"`
	Name     string            `json:"name"`
	Queue    string            `json:"queue"`
	Tier     string            `json:"tier"`
	Entries  []LeagueListEntry `json:"entries"`
}

type LeagueListEntry struct {
	PlayerOrTeamID   string `json:"playerOrTeamId"`
	PlayerOrTeamName string `json:"playerOrTeamName"`
	Rank             string `json:"rank"`
	LeaguePoints     int    `json:"leaguePoints"`
	Wins             int    `json:"wins"`
	Losses           int    `json:"losses"`
	HotStreak        bool   `json:"hotStreak"`
	Veteran          bool   `json:"veteran"`
	FreshBlood       bool   `json:"freshBlood"`
	Inactive         bool   `json:"inactive"`
}

// LeaguePosition is one entry of /lol/league/v3/positions/by-summoner/{summonerId}
type LeaguePosition struct {
	LeagueID         string `json:"leagueId"`
	LeagueName       string `json:"leagueName"`
	QueueType        string `json:"queueType"` // RANKED_SOLO_5x5, RANKED_FLEX_SR
	Tier             string `json:"tier"`
	Rank             string `json:"rank"`
	PlayerOrTeamID   string `json:"playerOrTeamId"`
	PlayerOrTeamName string `json:"playerOrTeamName"`
	LeaguePoints     int    `json:"leaguePoints"`
	Wins             int    `json:"wins"`
	Losses           int    `json:"losses"`
	HotStreak        bool   `json:"hotStreak"`
}

// MasteryPages represents the response from /lol/platform/v3/masteries/by-summoner/{summonerId}
type MasteryPages struct {
	SummonerID ID            `json:"summonerId"`
	Pages      []MasteryPage `json:"pages"`
}

type MasteryPage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Current   bool      `json:"current"`
	Masteries []Mastery `json:"masteries"`
}

type Mastery struct {
	ID   int `json:"id"`
	Rank int `json:"rank"`
}

// MatchList represents the response from /lol/match/v3/matchlists/by-account/{accountId}
type MatchList struct {
	Matches    []MatchReference `json:"matches"`
	StartIndex int              `json:"startIndex"`
	EndIndex   int              `json:"endIndex"`
	TotalGames int              `json:"totalGames"`
}

// MatchReference is a lightweight handle to one match in a match list
type MatchReference struct {
	GameID     int64  `json:"gameId"`
	PlatformID string `json:"platformId"`
	Champion   int    `json:"champion"`
	Queue      int    `json:"queue"`
	Season     int    `json:"season"`
	Timestamp  int64  `json:"timestamp"`
	Role       string `json:"role"`
	Lane       string `json:"lane"`
}

// Match represents the response from /lol/match/v3/matches/{gameId}.
// Participants and ParticipantIdentities are correlated by slot index.
type Match struct {
	GameID                int64                 `json:"gameId"`
	PlatformID            string                `json:"platformId"`
	GameCreation          int64                 `json:"gameCreation"`
	GameDuration          int                   `json:"gameDuration"`
	QueueID               int                   `json:"queueId"`
	MapID                 int                   `json:"mapId"`
	SeasonID              int                   `json:"seasonId"`
	GameVersion           string                `json:"gameVersion"`
	GameMode              string                `json:"gameMode"`
	GameType              string                `json:"gameType"`
	Participants          []*Participant        `json:"participants"`
	ParticipantIdentities []*ParticipantIdentity `json:"participantIdentities"`
}

// Participant carries the raw per-player statistics of a match. Stats is kept as a
// loose map because its keys change between API versions.
type Participant struct {
	ParticipantID int            `json:"participantId"`
	TeamID        int            `json:"teamId"`
	ChampionID    int            `json:"championId"`
	Spell1ID      int            `json:"spell1Id"`
	Spell2ID      int            `json:"spell2Id"`
	Stats         map[string]any `json:"stats"`
}

type ParticipantIdentity struct {
	ParticipantID int     `json:"participantId"`
	Player        *Player `json:"player"`
}

type Player struct {
	SummonerName      string `json:"summonerName"`
	AccountID         ID     `json:"accountId"`
	SummonerID        ID     `json:"summonerId"`
	CurrentAccountID  ID     `json:"currentAccountId"`
	CurrentPlatformID string `json:"currentPlatformId"`
	PlatformID        string `json:"platformId"`
	ProfileIcon       int    `json:"profileIcon"`
}
