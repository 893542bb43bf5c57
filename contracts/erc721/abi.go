// Package erc721 contains the ABI and a hand-written binding for the view
// methods this pipeline needs from an ERC-721 contract. It deliberately
// omits every write method - the Event Ingestor, backfill driver and
// Metadata Worker never submit transactions, they only read logs and call
// view methods.
package erc721

// ABI is the minimal ERC-721 interface surface this pipeline calls:
// tokenURI for per-mint enrichment, totalSupply for the backfill driver,
// and the Transfer event signature used to detect mints.
const ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"name": "tokenURI",
		"outputs": [{"name": "", "type": "string"}],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "totalSupply",
		"outputs": [{"name": "", "type": "uint256"}],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": true, "name": "tokenId", "type": "uint256"}
		],
		"name": "Transfer",
		"type": "event"
	}
]`

// TransferEventSignature is the canonical signature hashed to identify
// Transfer logs on the wire.
const TransferEventSignature = "Transfer(address,address,uint256)"
