package domain

// NetworkInfo is a configured network with its resolved endpoint
type NetworkInfo struct {
	Name    string      `json:"name"`
	ChainID uint64      `json:"chainId,omitempty"`
	RPCURL  string      `json:"-"`
	Mode    NetworkMode `json:"mode"`
	// ForkOf names the production network a fork rehearses
	ForkOf string `json:"forkOf,omitempty"`
}
