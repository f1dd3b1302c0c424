package config

import "fmt"

// avaxExplorers maps the network to the C-Chain explorer transaction URL prefix
var avaxExplorers = map[string]string{
	mainnet: "https://snowtrace.io/tx/",
	testnet: "https://testnet.snowtrace.io/tx/",
}

// algoExplorers maps the network to the Algorand explorer transaction URL prefix
var algoExplorers = map[string]string{
	mainnet: "https://lora.algokit.io/mainnet/transaction/",
	testnet: "https://lora.algokit.io/testnet/transaction/",
}

// AvaxTxURL returns an explorer link for an EVM transaction hash
func (c *Config) AvaxTxURL(hash string) string {
	return explorerURL(avaxExplorers, c.Network, hash)
}

// AlgoTxURL returns an explorer link for an Algorand transaction id
func (c *Config) AlgoTxURL(txID string) string {
	return explorerURL(algoExplorers, c.Network, txID)
}

func explorerURL(table map[string]string, network, id string) string {
	prefix, ok := table[network]
	if !ok {
		return id
	}
	return fmt.Sprintf("%s%s", prefix, id)
}
