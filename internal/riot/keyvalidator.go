package riot

import "context"

const statusPath = "/lol/status/v3/shard-data"

// ShardStatus is the lightweight response used to check a key
type ShardStatus struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Hostname string   `json:"hostname"`
	Locales  []string `json:"locales"`
}

// ValidateKey checks the client's API key by requesting the platform status.
// Returns:
//   - (true, nil) if the key is valid
//   - (false, nil) if the key is invalid (401/403)
//   - (false, error) if there was a network/server error (key validity unknown)
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	var status ShardStatus
	err := c.doRequest(ctx, EndpointStatus, statusPath, &status)
	if err == nil {
		return true, nil
	}
	if IsAPIKeyError(err) {
		return false, nil
	}
	return false, err
}
