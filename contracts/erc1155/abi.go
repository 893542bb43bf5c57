// Package erc1155 contains the ABI and a hand-written binding for the view
// methods this pipeline needs from an ERC-1155 contract, mirroring erc721
// for the multi-token standard's uri method and its two transfer events.
package erc1155

// ABI is the minimal ERC-1155 interface surface this pipeline calls: uri
// for per-mint enrichment, and the TransferSingle/TransferBatch event
// signatures used to detect mints.
const ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "id", "type": "uint256"}],
		"name": "uri",
		"outputs": [{"name": "", "type": "string"}],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "operator", "type": "address"},
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": false, "name": "id", "type": "uint256"},
			{"indexed": false, "name": "value", "type": "uint256"}
		],
		"name": "TransferSingle",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "operator", "type": "address"},
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": false, "name": "ids", "type": "uint256[]"},
			{"indexed": false, "name": "values", "type": "uint256[]"}
		],
		"name": "TransferBatch",
		"type": "event"
	}
]`

const (
	// TransferSingleEventSignature is the canonical signature hashed to
	// identify TransferSingle logs on the wire.
	TransferSingleEventSignature = "TransferSingle(address,address,address,uint256,uint256)"

	// TransferBatchEventSignature is the canonical signature hashed to
	// identify TransferBatch logs on the wire.
	TransferBatchEventSignature = "TransferBatch(address,address,address,uint256[],uint256[])"
)
