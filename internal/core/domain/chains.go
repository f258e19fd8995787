package domain

import "strconv"

// Well-known chain IDs.
const (
	ChainIDEthereum ChainID = 1
	ChainIDPolygon  ChainID = 137
)

// ChainIDToName maps ChainID to its human-readable name.
var ChainIDToName = map[ChainID]string{
	ChainIDEthereum: "ETHEREUM_MAINNET",
	ChainIDPolygon:  "POLYGON_MAINNET",
}

// Name returns the known name for a chain, or its numeric form.
func (c ChainID) Name() string {
	if name, ok := ChainIDToName[c]; ok {
		return name
	}
	return c.String()
}

func (c ChainID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}
