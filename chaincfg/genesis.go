package chaincfg

// mainnetGenesis identifies the first block of the main network. The
// genesis block carries no reward and no previous block; its signature
// was produced by the genesis account at slot zero.
var mainnetGenesis = GenesisParams{
	ID:                 "6524861224470851795",
	PayloadHash:        "4e4f91992a004b68449c2e7e9476f62aa0efcf3428b845d261a1a4c99ded1b80",
	GeneratorPublicKey: "c96dec3595ff6041c3bd28b76b8cf75dce8225173d1bd00241624ee89b50f2a8",
	BlockSignature: "d2f554e4fd84b34302ae27ba84a2bbf832a24b0e0b3ced9f5c3c8a2b6a2a1d1d" +
		"84fe10e419d2fd8bdb555bbf0b48bcb0fc299b8ab4d1ba7c26a4d58f23a72c0b",
}

// testnetGenesis identifies the first block of the test network.
var testnetGenesis = GenesisParams{
	ID:                 "15918227965294218870",
	PayloadHash:        "ec47bf02f0f9a6ffcbeae65fc9b0fe664bbefcd1cc8b0ee20811ce44b4f67e02",
	GeneratorPublicKey: "e26ba4c00a5e10b02ae3d456f09c76cb08b2a2e91487b229b2a01d6ddd4dbfdd",
	BlockSignature: "1f0ad2f4b8b577cf0c4b6b4c5a36b6b95f7c52bcd7cd5a36b30e99c6e43e89c0" +
		"64cb0e01bcf9bd2cf1c9c7ba42dc23c06b9fbd7be995d5c27b355c2c39a0ee02",
}

// simnetGenesis identifies the first block of the simulation network.
var simnetGenesis = GenesisParams{
	ID:                 "10620616195853047363",
	PayloadHash:        "da780e9df901dff1b4ef2458d8f8dfefc3f2f0fb17c11ba1c9f70327ba6f7b1f",
	GeneratorPublicKey: "35deb57b84d06c93efa50c1f34d4ee46c1c119b5b9f0b8d3c484a4c867c63966",
	BlockSignature: "aa2fd1c2cbc7a2bf6b7e67ba8c8f2b7e9cf1c3e6c37df7b0c5fce079fa2c90d2" +
		"4bc2ab1be0b4ef32ca1b6b9b4cb04eaa5e2dd6b7a78a11a2c2a88e0db9c62e0a",
}
